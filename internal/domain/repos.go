package domain

import (
	"context"

	"github.com/google/uuid"
)

type BrandRepo interface {
	Save(ctx context.Context, b *Brand) error
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)
	FindBySlug(ctx context.Context, slug string) (*Brand, error)
	List(ctx context.Context) ([]Brand, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NameExists(ctx context.Context, name string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type CategoryRepo interface {
	Save(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NameExists(ctx context.Context, name string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	// List returns the full ordered result set; pagination is the caller's.
	List(ctx context.Context, f ProductFilter) ([]Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type CartRepo interface {
	// Upsert inserts the item or, when a row for the same owner and product
	// already exists, atomically increments its quantity by item.Quantity.
	// The item is updated in place with the resulting row.
	Upsert(ctx context.Context, item *CartItem) error
	FindForOwner(ctx context.Context, owner CartOwner, itemID uuid.UUID) (*CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	DeleteForOwner(ctx context.Context, owner CartOwner, itemID uuid.UUID) error
	ClearOwner(ctx context.Context, owner CartOwner) error
	ListForOwner(ctx context.Context, owner CartOwner) ([]CartItem, error)
}

type UserRepo interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
