package usecase

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/phenrril/shopapi/internal/domain"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

type CheckoutUC struct {
	Products domain.ProductRepo
	Gateway  domain.PaymentGateway
}

// CreateSession asks the payment provider for a hosted checkout page for a
// single product and returns its session id and redirect URL.
func (uc *CheckoutUC) CreateSession(ctx context.Context, productID uuid.UUID, email string, quantity int) (*domain.CheckoutSession, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "quantity must be at least 1")
	}
	if !emailRe.MatchString(email) {
		return nil, domain.Invalid("email", "invalid email address")
	}
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return uc.Gateway.CreateCheckoutSession(ctx, p, email, quantity)
}
