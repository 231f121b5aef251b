package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/middleware"
	"github.com/linkedout/messaging-platform/internal/model"
	"github.com/linkedout/messaging-platform/internal/service"
	"github.com/linkedout/messaging-platform/pkg/logger"
)

const testSecret = "test-secret"

// memoryStore implements service.MessageStore in memory for handler tests.
type memoryStore struct {
	mu       sync.Mutex
	messages map[string]*model.Message
}

func newMemoryStore() *memoryStore {
	return &memoryStore{messages: make(map[string]*model.Message)}
}

func (s *memoryStore) Create(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.messages[msg.ID] = &clone
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, apperrors.NotFound("message", id)
	}
	clone := *msg
	return &clone, nil
}

func (s *memoryStore) ListBetween(ctx context.Context, userA, userB string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA)
	}, true), nil
}

func (s *memoryStore) ListForUser(ctx context.Context, userID string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	}, false), nil
}

func (s *memoryStore) ListUnreadFrom(ctx context.Context, receiverID, senderID string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead
	}, true), nil
}

func (s *memoryStore) MarkRead(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			msg.IsRead = true
		}
	}
	return nil
}

func (s *memoryStore) collect(match func(*model.Message) bool, ascending bool) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, 0)
	for _, msg := range s.messages {
		if match(msg) {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !ascending {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// memoryDirectory implements service.UserDirectory.
type memoryDirectory struct {
	users map[string]*model.User
}

func (d *memoryDirectory) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return user, nil
}

// recordingRelay implements service.EventPublisher.
type recordingRelay struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingRelay) Publish(ctx context.Context, userID string, event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type testEnv struct {
	router *chi.Mux
	store  *memoryStore
	alice  *model.User
	bob    *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()

	alice := &model.User{ID: uuid.NewString(), DisplayName: "Alice Chen"}
	bob := &model.User{ID: uuid.NewString(), DisplayName: "Bob Okafor"}
	store := newMemoryStore()
	directory := &memoryDirectory{users: map[string]*model.User{alice.ID: alice, bob.ID: bob}}
	relay := &recordingRelay{}

	messageSvc := service.NewMessageService(store, directory, relay, log)
	conversationSvc := service.NewConversationService(store, directory, relay, log)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(testSecret))
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", NewConversationHandler(conversationSvc, 30*time.Second, log).List)
			r.Get("/{counterpartID}", NewConversationHandler(conversationSvc, 30*time.Second, log).Open)
		})
		r.Post("/messages", NewMessageHandler(messageSvc, log).Send)
	})

	return &testEnv{router: r, store: store, alice: alice, bob: bob}
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Unauthorized(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodPost, "/api/v1/messages"},
	} {
		rec := env.do(t, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAPI_SendMessage(t *testing.T) {
	t.Run("should create a message and return 201", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/v1/messages", env.alice.ID,
			model.SendMessageRequest{ReceiverID: env.bob.ID, Content: "hello"})
		req.Equal(http.StatusCreated, rec.Code)

		var resp model.SendMessageResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.Equal("hello", resp.Message.Content)
		req.False(resp.Message.IsRead)

		stored, err := env.store.ListBetween(context.Background(), env.alice.ID, env.bob.ID)
		req.NoError(err)
		req.Len(stored, 1)
	})

	t.Run("should return 400 for empty content", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/messages", env.alice.ID,
			model.SendMessageRequest{ReceiverID: env.bob.ID, Content: "   "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 404 for an unknown receiver", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/v1/messages", env.alice.ID,
			model.SendMessageRequest{ReceiverID: uuid.NewString(), Content: "hello"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should return 400 for a malformed body", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+signToken(t, env.alice.ID))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_Conversations(t *testing.T) {
	t.Run("should return an empty list with the poll interval", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t)

		rec := env.do(t, http.MethodGet, "/api/v1/conversations", env.bob.ID, nil)
		req.Equal(http.StatusOK, rec.Code)

		var resp model.ListConversationsResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.Empty(resp.Conversations)
		req.Equal(30, resp.PollIntervalSeconds)
	})

	t.Run("should aggregate and then clear unread on open", func(t *testing.T) {
		req := require.New(t)
		env := newTestEnv(t)

		for _, content := range []string{"hello", "there"} {
			rec := env.do(t, http.MethodPost, "/api/v1/messages", env.alice.ID,
				model.SendMessageRequest{ReceiverID: env.bob.ID, Content: content})
			req.Equal(http.StatusCreated, rec.Code)
		}

		rec := env.do(t, http.MethodGet, "/api/v1/conversations", env.bob.ID, nil)
		req.Equal(http.StatusOK, rec.Code)
		var listResp model.ListConversationsResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &listResp))
		req.Len(listResp.Conversations, 1)
		req.Equal(env.alice.ID, listResp.Conversations[0].CounterpartID)
		req.Equal("there", listResp.Conversations[0].LastMessageContent)
		req.Equal(2, listResp.Conversations[0].UnreadCount)

		rec = env.do(t, http.MethodGet, "/api/v1/conversations/"+env.alice.ID, env.bob.ID, nil)
		req.Equal(http.StatusOK, rec.Code)
		var histResp model.ListMessagesResponse
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &histResp))
		req.Len(histResp.Messages, 2)
		req.Equal("hello", histResp.Messages[0].Content)

		rec = env.do(t, http.MethodGet, "/api/v1/conversations", env.bob.ID, nil)
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &listResp))
		req.Equal(0, listResp.Conversations[0].UnreadCount)
	})

	t.Run("should return 400 for a malformed counterpart id", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/v1/conversations/not-a-uuid", env.bob.ID, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return 404 for an unknown counterpart", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/v1/conversations/"+uuid.NewString(), env.bob.ID, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
