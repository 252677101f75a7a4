package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Brand struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Slug string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Slug string    `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Slug        string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	BrandID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Brand       *Brand          `json:"brand,omitempty"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Category    *Category       `json:"category,omitempty"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);index" json:"price"`
	Rating      decimal.Decimal `gorm:"type:decimal(3,2);index;default:0" json:"rating"`
	InStock     bool            `gorm:"index;default:true" json:"in_stock"`
	ImageURL    string          `gorm:"size:255" json:"image_url"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFilter carries the optional list filters. Nil/zero fields impose no
// constraint; supplied fields are combined with AND.
type ProductFilter struct {
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
	InStock    *bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Ordering   string
}

// OrderingFields is the whitelist for ProductFilter.Ordering. A leading '-'
// requests descending order.
var OrderingFields = map[string]string{
	"price":      "price",
	"rating":     "rating",
	"created_at": "created_at",
	"name":       "name",
}
