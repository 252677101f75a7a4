package domain

import "context"

type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PaymentGateway creates a hosted payment page for a single product purchase.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p *Product, email string, quantity int) (*CheckoutSession, error)
}
