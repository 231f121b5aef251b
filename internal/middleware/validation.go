package middleware

import (
	"github.com/google/uuid"

	"github.com/linkedout/messaging-platform/internal/apperrors"
)

// ValidateUserID validates a user id path or body parameter.
func ValidateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation("user_id", "must be a valid UUID")
	}
	return nil
}

// ValidateMessageID validates a message id.
func ValidateMessageID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation("message_id", "must be a valid UUID")
	}
	return nil
}
