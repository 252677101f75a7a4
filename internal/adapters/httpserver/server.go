package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"github.com/phenrril/shopapi/internal/config"
	"github.com/phenrril/shopapi/internal/domain"
	"github.com/phenrril/shopapi/internal/usecase"
)

type Server struct {
	mux      *http.ServeMux
	cfg      config.Config
	key      []byte
	catalog  *usecase.CatalogUC
	cart     *usecase.CartUC
	checkout *usecase.CheckoutUC
	users    domain.UserRepo
	oauthCfg *oauth2.Config
}

func New(cfg config.Config, catalog *usecase.CatalogUC, cart *usecase.CartUC, checkout *usecase.CheckoutUC, users domain.UserRepo, oauthCfg *oauth2.Config) http.Handler {
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		key:      []byte(cfg.SessionKey),
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		users:    users,
		oauthCfg: oauthCfg,
	}
	s.routes()
	return Chain(s.mux,
		RequestID,
		Recovery,
		Logging,
		CORS,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	s.mux.HandleFunc("/products/", s.handleProducts)
	s.mux.HandleFunc("/brands/", s.handleBrands)
	s.mux.HandleFunc("/categories/", s.handleCategories)

	s.mux.HandleFunc("/cart/", s.handleCart)
	s.mux.HandleFunc("/cart/clear/", s.handleCartClear)

	s.mux.HandleFunc("/create-checkout-session/", s.handleCheckoutSession)

	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller resolves the request identity: logged-in user first, anonymous cart
// session second.
func (s *Server) caller(r *http.Request) domain.Caller {
	var c domain.Caller
	if u := s.readUserSession(r); u != nil {
		id := u.ID
		c.UserID = &id
		c.Staff = u.Staff || s.cfg.StaffAllowed(u.Email)
		return c
	}
	if sid := s.peekCartSession(r); sid != "" {
		c.SessionID = &sid
	}
	return c
}

// cartOwner resolves the cart owner, minting an anonymous session as a side
// effect of the first cart operation.
func (s *Server) cartOwner(w http.ResponseWriter, r *http.Request) domain.CartOwner {
	if u := s.readUserSession(r); u != nil {
		return domain.UserOwner(u.ID)
	}
	return domain.SessionOwner(s.cartSession(w, r))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, domain.Invalid("body", "invalid JSON body"))
		return false
	}
	return true
}

// --- products ---

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products/"), "/")
	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			s.listProducts(w, r)
		case http.MethodPost:
			s.createProduct(w, r)
		default:
			methodNotAllowed(w)
		}
	case rest == "export":
		s.exportProducts(w, r)
	default:
		s.productBySlug(w, r, rest)
	}
}

func parseListQuery(r *http.Request) (domain.ProductFilter, error) {
	var f domain.ProductFilter
	q := r.URL.Query()
	errs := domain.ValidationError{}

	if v := q.Get("brand"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs["brand"] = "invalid brand id"
		} else {
			f.BrandID = &id
		}
	}
	if v := q.Get("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs["category"] = "invalid category id"
		} else {
			f.CategoryID = &id
		}
	}
	// Presence of the key activates the filter; only "true"/"1" parse as
	// true, every other present value means false. Absent key, no filter.
	if _, ok := q["in_stock"]; ok {
		v := q.Get("in_stock")
		b := v == "true" || v == "1"
		f.InStock = &b
	}
	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs["min_price"] = "invalid decimal"
		} else {
			f.MinPrice = &d
		}
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs["max_price"] = "invalid decimal"
		} else {
			f.MaxPrice = &d
		}
	}
	f.Search = q.Get("search")
	f.Ordering = q.Get("ordering")
	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := parseListQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	items, err := s.catalog.ListProducts(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "products retrieved", paginate(r, items))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if !decodeBody(w, r, &in) {
		return
	}
	p, err := s.catalog.CreateProduct(r.Context(), s.caller(r), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, "product created", p)
}

func (s *Server) productBySlug(w http.ResponseWriter, r *http.Request, slug string) {
	switch r.Method {
	case http.MethodGet:
		p, err := s.catalog.GetProduct(r.Context(), slug)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "product retrieved", p)
	case http.MethodPut, http.MethodPatch:
		var in usecase.ProductInput
		if !decodeBody(w, r, &in) {
			return
		}
		p, err := s.catalog.UpdateProduct(r.Context(), s.caller(r), slug, in)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "product updated", p)
	case http.MethodDelete:
		if err := s.catalog.DeleteProduct(r.Context(), s.caller(r), slug); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "product deleted", nil)
	default:
		methodNotAllowed(w)
	}
}

// --- brands / categories ---

type nameInput struct {
	Name string `json:"name"`
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/brands/"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			list, err := s.catalog.ListBrands(r.Context())
			if err != nil {
				respondError(w, err)
				return
			}
			respond(w, http.StatusOK, "brands retrieved", paginate(r, list))
		case http.MethodPost:
			var in nameInput
			if !decodeBody(w, r, &in) {
				return
			}
			b, err := s.catalog.CreateBrand(r.Context(), s.caller(r), in.Name)
			if err != nil {
				respondError(w, err)
				return
			}
			respond(w, http.StatusCreated, "brand created", b)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.catalog.DeleteBrand(r.Context(), s.caller(r), rest); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "brand deleted", nil)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/categories/"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			list, err := s.catalog.ListCategories(r.Context())
			if err != nil {
				respondError(w, err)
				return
			}
			respond(w, http.StatusOK, "categories retrieved", paginate(r, list))
		case http.MethodPost:
			var in nameInput
			if !decodeBody(w, r, &in) {
				return
			}
			c, err := s.catalog.CreateCategory(r.Context(), s.caller(r), in.Name)
			if err != nil {
				respondError(w, err)
				return
			}
			respond(w, http.StatusCreated, "category created", c)
		default:
			methodNotAllowed(w)
		}
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.catalog.DeleteCategory(r.Context(), s.caller(r), rest); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "category deleted", nil)
}

// --- cart ---

type cartAddInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type cartItemInput struct {
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity"`
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	if strings.Trim(strings.TrimPrefix(r.URL.Path, "/cart/"), "/") != "" {
		respondError(w, domain.ErrNotFound)
		return
	}
	owner := s.cartOwner(w, r)
	switch r.Method {
	case http.MethodGet:
		items, err := s.cart.List(r.Context(), owner)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "cart retrieved", items)
	case http.MethodPost:
		var in cartAddInput
		if !decodeBody(w, r, &in) {
			return
		}
		item, err := s.cart.Add(r.Context(), owner, in.ProductID, in.Quantity)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusCreated, "item added to cart", item)
	case http.MethodPatch:
		var in cartItemInput
		if !decodeBody(w, r, &in) {
			return
		}
		item, err := s.cart.Update(r.Context(), owner, in.ID, in.Quantity)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "cart item updated", item)
	case http.MethodDelete:
		var in cartItemInput
		if !decodeBody(w, r, &in) {
			return
		}
		if err := s.cart.Remove(r.Context(), owner, in.ID); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, "cart item removed", nil)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	owner := s.cartOwner(w, r)
	if err := s.cart.Clear(r.Context(), owner); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "cart cleared", nil)
}

// --- checkout ---

type checkoutInput struct {
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
}

func (s *Server) handleCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/create-checkout-session/"), "/")
	productID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, domain.ErrNotFound)
		return
	}
	var in checkoutInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	sess, err := s.checkout.CreateSession(r.Context(), productID, in.Email, in.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, "checkout session created", sess)
}

// --- auth ---

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		respondError(w, errors.New("oauth not configured"))
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 600, HttpOnly: true})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		respondError(w, errors.New("oauth not configured"))
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respond(w, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}
	token, err := s.oauthCfg.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange failed")
		respond(w, http.StatusBadGateway, "oauth exchange failed", nil)
		return
	}

	res, err := s.oauthCfg.Client(r.Context(), token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		respond(w, http.StatusBadGateway, "userinfo fetch failed", nil)
		return
	}
	defer res.Body.Close()
	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil || info.Email == "" {
		respond(w, http.StatusBadGateway, "userinfo decode failed", nil)
		return
	}

	u, err := s.users.FindByEmail(r.Context(), info.Email)
	if errors.Is(err, domain.ErrNotFound) {
		u = &domain.User{ID: uuid.New(), Email: info.Email}
	} else if err != nil {
		respondError(w, err)
		return
	}
	u.Name = info.Name
	u.Picture = info.Picture
	u.Staff = s.cfg.StaffAllowed(info.Email)
	if err := s.users.Save(r.Context(), u); err != nil {
		respondError(w, err)
		return
	}

	s.writeUserSession(w, &sessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Staff: u.Staff})
	http.Redirect(w, r, "/products/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.writeUserSession(w, nil)
	respond(w, http.StatusOK, "logged out", nil)
}
