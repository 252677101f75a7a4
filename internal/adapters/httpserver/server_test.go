package httpserver_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/shopapi/internal/adapters/httpserver"
	"github.com/phenrril/shopapi/internal/adapters/repo/memory"
	"github.com/phenrril/shopapi/internal/config"
	"github.com/phenrril/shopapi/internal/domain"
	"github.com/phenrril/shopapi/internal/usecase"
)

type env struct {
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Errors     map[string]string `json:"errors"`
}

type pageData struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

type fakeGateway struct {
	lastEmail    string
	lastQuantity int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, _ *domain.Product, email string, quantity int) (*domain.CheckoutSession, error) {
	g.lastEmail, g.lastQuantity = email, quantity
	return &domain.CheckoutSession{SessionID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}

type serverFixture struct {
	handler  http.Handler
	cfg      config.Config
	products *memory.ProductRepo
	gateway  *fakeGateway
	brand    domain.Brand
	category domain.Category
	shoe     domain.Product
	soldOut  domain.Product
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	cfg := config.Config{SessionKey: "test-key", StaffEmails: []string{"admin@example.com"}}

	brands := memory.NewBrandRepo()
	cats := memory.NewCategoryRepo()
	products := memory.NewProductRepo(brands, cats)
	carts := memory.NewCartRepo(products)
	users := memory.NewUserRepo()

	b := domain.Brand{ID: uuid.New(), Name: "Nike", Slug: "nike"}
	c := domain.Category{ID: uuid.New(), Name: "Shoes", Slug: "shoes"}
	require.NoError(t, brands.Save(context.Background(), &b))
	require.NoError(t, cats.Save(context.Background(), &c))

	shoe := domain.Product{
		ID: uuid.New(), Name: "Air Max", Slug: "air-max",
		BrandID: b.ID, CategoryID: c.ID,
		Price: decimal.RequireFromString("120.00"), InStock: true,
	}
	soldOut := domain.Product{
		ID: uuid.New(), Name: "Sold Out Runner", Slug: "sold-out-runner",
		BrandID: b.ID, CategoryID: c.ID,
		Price: decimal.Zero, InStock: false,
	}
	require.NoError(t, products.Save(context.Background(), &shoe))
	require.NoError(t, products.Save(context.Background(), &soldOut))

	gw := &fakeGateway{}
	catalog := &usecase.CatalogUC{Brands: brands, Categories: cats, Products: products}
	cart := &usecase.CartUC{Carts: carts, Products: products}
	checkout := &usecase.CheckoutUC{Products: products, Gateway: gw}

	return &serverFixture{
		handler:  httpserver.New(cfg, catalog, cart, checkout, users, nil),
		cfg:      cfg,
		products: products,
		gateway:  gw,
		brand:    b,
		category: c,
		shoe:     shoe,
		soldOut:  soldOut,
	}
}

func (f *serverFixture) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) (*http.Response, env) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	res := w.Result()

	var e env
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &e)
	}
	return res, e
}

// staffCookie forges a signed user session the way the oauth callback writes
// one, using the fixture's session key.
func (f *serverFixture) staffCookie(t *testing.T) *http.Cookie {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":    uuid.New(),
		"email": "admin@example.com",
		"name":  "Admin",
		"staff": true,
	})
	require.NoError(t, err)
	mac := hmac.New(sha256.New, []byte(f.cfg.SessionKey))
	mac.Write(payload)
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	value := sig + "." + base64.RawURLEncoding.EncodeToString(payload)
	return &http.Cookie{Name: "sess", Value: value}
}

func cookieNamed(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodePage(t *testing.T, e env) pageData {
	t.Helper()
	var p pageData
	require.NoError(t, json.Unmarshal(e.Data, &p))
	return p
}

func resultNames(t *testing.T, p pageData) []string {
	t.Helper()
	var items []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(p.Results, &items))
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestListProductsEnvelopeAndPagination(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	third := domain.Product{
		ID: uuid.New(), Name: "Court Vision", Slug: "court-vision",
		BrandID: f.brand.ID, CategoryID: f.category.ID,
		Price: decimal.RequireFromString("49.99"), InStock: true,
	}
	require.NoError(t, f.products.Save(context.Background(), &third))

	res, e := f.do(t, http.MethodGet, "/products/?page_size=2", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, http.StatusOK, e.StatusCode)
	assert.Equal(t, "products retrieved", e.Message)

	p := decodePage(t, e)
	assert.Equal(t, 3, p.Count)
	assert.Len(t, resultNames(t, p), 2)
	require.NotNil(t, p.Next)
	assert.Contains(t, *p.Next, "page=2")
	assert.Nil(t, p.Previous)

	res, e = f.do(t, http.MethodGet, "/products/?page_size=2&page=2", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	p = decodePage(t, e)
	assert.Len(t, resultNames(t, p), 1)
	assert.Nil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Contains(t, *p.Previous, "page=1")
}

func TestProductDetail(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, e := f.do(t, http.MethodGet, "/products/air-max/", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got struct {
		Name  string        `json:"name"`
		Brand *domain.Brand `json:"brand"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &got))
	assert.Equal(t, "Air Max", got.Name)
	require.NotNil(t, got.Brand)
	assert.Equal(t, "Nike", got.Brand.Name)

	res, e = f.do(t, http.MethodGet, "/products/nope/", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}

func TestInStockQueryParsing(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	// Any present value other than "true"/"1" filters for out-of-stock.
	_, e := f.do(t, http.MethodGet, "/products/?in_stock=banana", "")
	assert.Equal(t, []string{"Sold Out Runner"}, resultNames(t, decodePage(t, e)))

	_, e = f.do(t, http.MethodGet, "/products/?in_stock=1", "")
	assert.Equal(t, []string{"Air Max"}, resultNames(t, decodePage(t, e)))

	_, e = f.do(t, http.MethodGet, "/products/", "")
	assert.Len(t, resultNames(t, decodePage(t, e)), 2)
}

func TestListProductsBadParams(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, e := f.do(t, http.MethodGet, "/products/?brand=not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, e.Errors, "brand")

	res, e = f.do(t, http.MethodGet, "/products/?ordering=-id", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, e.Errors, "ordering")
}

func TestCreateProductAuth(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	body := `{"name":"Pegasus","brand_id":"` + f.brand.ID.String() +
		`","category_id":"` + f.category.ID.String() + `","price":"130.00","in_stock":true}`

	res, _ := f.do(t, http.MethodPost, "/products/", body)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, e := f.do(t, http.MethodPost, "/products/", body, f.staffCookie(t))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var got struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &got))
	assert.Equal(t, "pegasus", got.Slug)
}

func TestDeleteBrandConflict(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodDelete, "/brands/nike/", "", f.staffCookie(t))
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCartFlow(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	add := `{"product_id":"` + f.shoe.ID.String() + `","quantity":2}`
	res, e := f.do(t, http.MethodPost, "/cart/", add)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	session := cookieNamed(res, "cart_session")
	require.NotNil(t, session, "first cart call mints a session cookie")

	var item struct {
		ID       uuid.UUID `json:"id"`
		Quantity int       `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &item))
	assert.Equal(t, 2, item.Quantity)

	// Same session adds again: quantity accumulates on the same row.
	res, e = f.do(t, http.MethodPost, "/cart/", add, session)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.NoError(t, json.Unmarshal(e.Data, &item))
	assert.Equal(t, 4, item.Quantity)

	_, e = f.do(t, http.MethodGet, "/cart/", "", session)
	var items []struct {
		ID       uuid.UUID       `json:"id"`
		Quantity int             `json:"quantity"`
		Product  *domain.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Air Max", items[0].Product.Name)

	// Update quantity, then remove.
	patch := `{"id":"` + items[0].ID.String() + `","quantity":1}`
	res, _ = f.do(t, http.MethodPatch, "/cart/", patch, session)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = f.do(t, http.MethodDelete, "/cart/", `{"id":"`+items[0].ID.String()+`"}`, session)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, e = f.do(t, http.MethodGet, "/cart/", "", session)
	items = nil
	require.NoError(t, json.Unmarshal(e.Data, &items))
	assert.Empty(t, items)
}

func TestCartIsolationBetweenSessions(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	add := `{"product_id":"` + f.shoe.ID.String() + `","quantity":1}`
	resA, _ := f.do(t, http.MethodPost, "/cart/", add)
	sessA := cookieNamed(resA, "cart_session")
	require.NotNil(t, sessA)

	resB, _ := f.do(t, http.MethodPost, "/cart/", add)
	sessB := cookieNamed(resB, "cart_session")
	require.NotNil(t, sessB)
	assert.NotEqual(t, sessA.Value, sessB.Value)

	_, e := f.do(t, http.MethodGet, "/cart/", "", sessA)
	var items []struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &items))
	require.Len(t, items, 1)

	// B cannot touch A's row.
	res, _ := f.do(t, http.MethodPatch, "/cart/", `{"id":"`+items[0].ID.String()+`","quantity":9}`, sessB)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCartRejectsBadAdds(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, e := f.do(t, http.MethodPost, "/cart/", `{"product_id":"`+f.soldOut.ID.String()+`","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, e.Errors, "product_id")

	res, e = f.do(t, http.MethodPost, "/cart/", `{"product_id":"`+f.shoe.ID.String()+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, e.Errors, "quantity")

	res, _ = f.do(t, http.MethodPost, "/cart/", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCartClear(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	// Clearing a fresh cart is fine.
	res, _ := f.do(t, http.MethodPost, "/cart/clear/", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	add := `{"product_id":"` + f.shoe.ID.String() + `","quantity":3}`
	resAdd, _ := f.do(t, http.MethodPost, "/cart/", add)
	session := cookieNamed(resAdd, "cart_session")
	require.NotNil(t, session)

	res, _ = f.do(t, http.MethodPost, "/cart/clear/", "", session)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, e := f.do(t, http.MethodGet, "/cart/", "", session)
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(e.Data, &items))
	assert.Empty(t, items)
}

func TestCheckoutSessionEndpoint(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodPost, "/create-checkout-session/not-a-uuid/", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = f.do(t, http.MethodPost, "/create-checkout-session/"+uuid.NewString()+"/", `{"email":"buyer@example.com"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, e := f.do(t, http.MethodPost, "/create-checkout-session/"+f.shoe.ID.String()+"/", `{"email":"buyer@example.com","quantity":2}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sess struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &sess))
	assert.Equal(t, "cs_test_123", sess.SessionID)
	assert.NotEmpty(t, sess.URL)
	assert.Equal(t, "buyer@example.com", f.gateway.lastEmail)
	assert.Equal(t, 2, f.gateway.lastQuantity)
}

func TestCheckoutQuantityDefaultsToOne(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodPost, "/create-checkout-session/"+f.shoe.ID.String()+"/", `{"email":"buyer@example.com"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, f.gateway.lastQuantity)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodDelete, "/products/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, _ = f.do(t, http.MethodGet, "/cart/clear/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestLogoutExpiresSession(t *testing.T) {
	t.Parallel()
	f := newServerFixture(t)

	res, _ := f.do(t, http.MethodPost, "/auth/logout", "", f.staffCookie(t))
	require.Equal(t, http.StatusOK, res.StatusCode)
	c := cookieNamed(res, "sess")
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}
