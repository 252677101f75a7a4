package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phenrril/shopapi/internal/domain"
)

var cents = decimal.NewFromInt(100)

// Gateway creates hosted Checkout Sessions against the Stripe API.
type Gateway struct {
	key        string
	apiBase    string
	publicBase string
	httpClient *http.Client
}

// NewGateway builds a gateway. apiBase is normally https://api.stripe.com and
// overridable so tests can point at a local stub.
func NewGateway(key, apiBase, publicBase string) *Gateway {
	if apiBase == "" {
		apiBase = "https://api.stripe.com"
	}
	if publicBase == "" {
		publicBase = "http://localhost:8080"
	}
	return &Gateway{
		key:        key,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		publicBase: strings.TrimSuffix(publicBase, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, p *domain.Product, email string, quantity int) (*domain.CheckoutSession, error) {
	if g.key == "" {
		return nil, errors.New("stripe key missing (STRIPE_SECRET_KEY)")
	}
	if p == nil {
		return nil, errors.New("nil product")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", email)
	form.Set("line_items[0][quantity]", strconv.Itoa(quantity))
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][product_data][name]", p.Name)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.Price.Mul(cents).IntPart(), 10))
	form.Set("success_url", g.publicBase+"/checkout/success?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", g.publicBase+"/products/"+p.Slug+"/")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.key)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		var stripeErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &stripeErr); err == nil && stripeErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe status %d: %s", res.StatusCode, stripeErr.Error.Message)
		}
		return nil, fmt.Errorf("stripe status %d: %s", res.StatusCode, string(body))
	}

	var sess sessionResp
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return nil, err
	}
	if sess.ID == "" || sess.URL == "" {
		return nil, errors.New("incomplete stripe response")
	}
	return &domain.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}
