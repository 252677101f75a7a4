package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem belongs to exactly one owner: a registered user or an anonymous
// session. Uniqueness per (owner, product) is enforced by partial unique
// indexes created in app.MigrateAndSeed.
type CartItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"-"`
	SessionID *string    `gorm:"size:64;index" json:"-"`
	ProductID uuid.UUID  `gorm:"type:uuid;index;not null" json:"product_id"`
	Product   *Product   `json:"product,omitempty"`
	Quantity  int        `gorm:"not null" json:"quantity"`
	AddedAt   time.Time  `gorm:"index" json:"added_at"`
}

// CartOwner identifies whose cart an operation targets. Exactly one field is
// set; Resolve on the cart usecase builds it from the caller.
type CartOwner struct {
	UserID    *uuid.UUID
	SessionID *string
}

func UserOwner(id uuid.UUID) CartOwner  { return CartOwner{UserID: &id} }
func SessionOwner(sid string) CartOwner { return CartOwner{SessionID: &sid} }

func (o CartOwner) Valid() bool { return (o.UserID != nil) != (o.SessionID != nil) }
