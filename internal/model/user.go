package model

import "time"

// User is a directory entry. The messaging core only reads users; account
// management lives in a separate service that owns this table.
type User struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DisplayName string    `gorm:"type:varchar(128);not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
