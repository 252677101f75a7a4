package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/shopapi/internal/adapters/repo/memory"
	"github.com/phenrril/shopapi/internal/domain"
	"github.com/phenrril/shopapi/internal/usecase"
)

type fakeGateway struct {
	lastProduct  *domain.Product
	lastEmail    string
	lastQuantity int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p *domain.Product, email string, quantity int) (*domain.CheckoutSession, error) {
	g.lastProduct, g.lastEmail, g.lastQuantity = p, email, quantity
	return &domain.CheckoutSession{SessionID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}

func newCheckoutFixture(t *testing.T) (*usecase.CheckoutUC, *fakeGateway, domain.Product) {
	t.Helper()
	products := memory.NewProductRepo(nil, nil)
	p := domain.Product{
		ID: uuid.New(), Name: "Air Max", Slug: "air-max",
		Price: decimal.RequireFromString("120.00"), InStock: true,
	}
	require.NoError(t, products.Save(context.Background(), &p))

	gw := &fakeGateway{}
	return &usecase.CheckoutUC{Products: products, Gateway: gw}, gw, p
}

func TestCreateSession(t *testing.T) {
	t.Parallel()
	uc, gw, p := newCheckoutFixture(t)

	sess, err := uc.CreateSession(context.Background(), p.ID, "buyer@example.com", 2)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", sess.SessionID)
	assert.Equal(t, "https://checkout.example/cs_test_123", sess.URL)
	assert.Equal(t, p.ID, gw.lastProduct.ID)
	assert.Equal(t, "buyer@example.com", gw.lastEmail)
	assert.Equal(t, 2, gw.lastQuantity)
}

func TestCreateSessionValidation(t *testing.T) {
	t.Parallel()
	uc, _, p := newCheckoutFixture(t)
	ctx := context.Background()

	var verr domain.ValidationError

	_, err := uc.CreateSession(ctx, p.ID, "buyer@example.com", 0)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "quantity")

	for _, email := range []string{"", "not-an-email", "a@b", "@example.com"} {
		_, err = uc.CreateSession(ctx, p.ID, email, 1)
		require.ErrorAs(t, err, &verr, "email %q", email)
		assert.Contains(t, verr, "email")
	}
}

func TestCreateSessionUnknownProduct(t *testing.T) {
	t.Parallel()
	uc, _, _ := newCheckoutFixture(t)

	_, err := uc.CreateSession(context.Background(), uuid.New(), "buyer@example.com", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
