package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:140;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"size:140" json:"name"`
	Picture   string    `gorm:"size:255" json:"picture"`
	Staff     bool      `gorm:"default:false" json:"staff"`
	CreatedAt time.Time `json:"created_at"`
}

// Caller is the resolved identity of a request: an optional authenticated
// user and an optional anonymous session key.
type Caller struct {
	UserID    *uuid.UUID
	SessionID *string
	Staff     bool
}

func (c Caller) Authenticated() bool { return c.UserID != nil }
