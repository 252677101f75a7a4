package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/shopapi/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func ownerScope(q *gorm.DB, owner domain.CartOwner) *gorm.DB {
	if owner.UserID != nil {
		return q.Where("user_id = ?", *owner.UserID)
	}
	return q.Where("session_id = ?", *owner.SessionID)
}

// Upsert inserts the row or increments the quantity of the existing
// owner+product row in a single statement, so concurrent adds serialize in
// the database instead of racing in the application.
func (r *CartRepo) Upsert(ctx context.Context, item *domain.CartItem) error {
	owner := domain.CartOwner{UserID: item.UserID, SessionID: item.SessionID}
	if !owner.Valid() {
		return errors.New("cart item needs exactly one owner")
	}
	ownerCol := "session_id"
	if item.UserID != nil {
		ownerCol = "user_id"
	}
	return r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:     []clause.Column{{Name: ownerCol}, {Name: "product_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{gorm.Expr(ownerCol + " IS NOT NULL")}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		},
		clause.Returning{},
	).Create(item).Error
}

func (r *CartRepo) FindForOwner(ctx context.Context, owner domain.CartOwner, itemID uuid.UUID) (*domain.CartItem, error) {
	var item domain.CartItem
	q := ownerScope(r.db.WithContext(ctx), owner)
	if err := q.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *CartRepo) Save(ctx context.Context, item *domain.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Save(item).Error
}

func (r *CartRepo) DeleteForOwner(ctx context.Context, owner domain.CartOwner, itemID uuid.UUID) error {
	res := ownerScope(r.db.WithContext(ctx), owner).Delete(&domain.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepo) ClearOwner(ctx context.Context, owner domain.CartOwner) error {
	return ownerScope(r.db.WithContext(ctx), owner).Delete(&domain.CartItem{}).Error
}

func (r *CartRepo) ListForOwner(ctx context.Context, owner domain.CartOwner) ([]domain.CartItem, error) {
	var list []domain.CartItem
	q := ownerScope(r.db.WithContext(ctx), owner).
		Preload("Product").Preload("Product.Brand").Preload("Product.Category").
		Order("added_at desc")
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
