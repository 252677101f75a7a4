package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/shopapi/internal/domain"
)

type CartUC struct {
	Carts    domain.CartRepo
	Products domain.ProductRepo
}

// Resolve picks the cart owner for a caller: the user id when authenticated,
// the session key otherwise. Carts are never merged between the two; a caller
// that logs in simply starts operating on the user-owned cart.
func (uc *CartUC) Resolve(caller domain.Caller) (domain.CartOwner, error) {
	if caller.UserID != nil {
		return domain.UserOwner(*caller.UserID), nil
	}
	if caller.SessionID != nil && *caller.SessionID != "" {
		return domain.SessionOwner(*caller.SessionID), nil
	}
	return domain.CartOwner{}, errors.New("caller has neither user nor session")
}

// Add creates the owner+product row or increments its quantity. The
// insert-or-increment happens in one statement in the repo, so concurrent
// adds for the same pair never lose an update.
func (uc *CartUC) Add(ctx context.Context, owner domain.CartOwner, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "quantity must be at least 1")
	}
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("product_id", "product does not exist")
		}
		return nil, err
	}
	if !p.InStock {
		return nil, domain.Invalid("product_id", "product is out of stock")
	}
	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	if err := uc.Carts.Upsert(ctx, item); err != nil {
		return nil, err
	}
	item.Product = p
	return item, nil
}

// Update replaces the quantity of an item the owner holds.
func (uc *CartUC) Update(ctx context.Context, owner domain.CartOwner, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "quantity must be at least 1")
	}
	item, err := uc.Carts.FindForOwner(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	if err := uc.Carts.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (uc *CartUC) Remove(ctx context.Context, owner domain.CartOwner, itemID uuid.UUID) error {
	return uc.Carts.DeleteForOwner(ctx, owner, itemID)
}

// Clear is a no-op for an empty cart.
func (uc *CartUC) Clear(ctx context.Context, owner domain.CartOwner) error {
	return uc.Carts.ClearOwner(ctx, owner)
}

func (uc *CartUC) List(ctx context.Context, owner domain.CartOwner) ([]domain.CartItem, error) {
	return uc.Carts.ListForOwner(ctx, owner)
}
