package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/linkedout/messaging-platform/internal/apperrors"
	"github.com/linkedout/messaging-platform/internal/model"
)

// Users is the read-only user directory. The account service owns the table;
// this service only resolves ids to display fields.
type Users struct {
	db *gorm.DB
}

// NewUsers creates a user directory backed by the shared database.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// GetByID returns a directory entry by user id.
func (r *Users) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
