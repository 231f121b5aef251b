package service

import (
	"context"
	"sort"
	"sync"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/model"
)

// fakeStore is an in-memory MessageStore mirroring the repository's ordering
// semantics.
type fakeStore struct {
	mu       sync.Mutex
	messages map[string]*model.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[string]*model.Message)}
}

func (s *fakeStore) Create(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.messages[msg.ID] = &clone
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, apperrors.NotFound("message", id)
	}
	clone := *msg
	return &clone, nil
}

func (s *fakeStore) ListBetween(ctx context.Context, userA, userB string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA)
	}, true), nil
}

func (s *fakeStore) ListForUser(ctx context.Context, userID string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return m.SenderID == userID || m.ReceiverID == userID
	}, false), nil
}

func (s *fakeStore) ListUnreadFrom(ctx context.Context, receiverID, senderID string) ([]model.Message, error) {
	return s.collect(func(m *model.Message) bool {
		return m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead
	}, true), nil
}

func (s *fakeStore) MarkRead(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			msg.IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) collect(match func(*model.Message) bool, ascending bool) []model.Message {
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

// fakeDirectory is an in-memory UserDirectory.
type fakeDirectory struct {
	users map[string]*model.User
}

func newFakeDirectory(users ...*model.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]*model.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return user, nil
}

// publishedEvent records one relay publish.
type publishedEvent struct {
	UserID string
	Event  model.Event
}

// fakeRelay records every published event.
type fakeRelay struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *fakeRelay) Publish(ctx context.Context, userID string, event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{UserID: userID, Event: event})
}

func (r *fakeRelay) published() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.events...)
}

func (r *fakeRelay) ofType(t model.EventType) []publishedEvent {
	out := make([]publishedEvent, 0)
	for _, ev := range r.published() {
		if ev.Event.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
