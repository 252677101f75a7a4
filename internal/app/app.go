package app

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/shopapi/internal/adapters/httpserver"
	"github.com/phenrril/shopapi/internal/adapters/payments/stripe"
	"github.com/phenrril/shopapi/internal/adapters/repo/postgres"
	"github.com/phenrril/shopapi/internal/config"
	"github.com/phenrril/shopapi/internal/domain"
	"github.com/phenrril/shopapi/internal/usecase"
)

type App struct {
	DB         *gorm.DB
	Cfg        config.Config
	CatalogUC  *usecase.CatalogUC
	CartUC     *usecase.CartUC
	CheckoutUC *usecase.CheckoutUC
	Users      domain.UserRepo
	OAuth      *oauth2.Config
}

func NewApp(db *gorm.DB, cfg config.Config) (*App, error) {
	brandRepo := postgres.NewBrandRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	productRepo := postgres.NewProductRepo(db)
	cartRepo := postgres.NewCartRepo(db)
	userRepo := postgres.NewUserRepo(db)

	gateway := stripe.NewGateway(cfg.StripeSecretKey, cfg.StripeAPIBase, cfg.BaseURL)

	var oauthCfg *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return &App{
		DB:  db,
		Cfg: cfg,
		CatalogUC: &usecase.CatalogUC{
			Brands:     brandRepo,
			Categories: categoryRepo,
			Products:   productRepo,
		},
		CartUC:     &usecase.CartUC{Carts: cartRepo, Products: productRepo},
		CheckoutUC: &usecase.CheckoutUC{Products: productRepo, Gateway: gateway},
		Users:      userRepo,
		OAuth:      oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Cfg, a.CatalogUC, a.CartUC, a.CheckoutUC, a.Users, a.OAuth)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.Brand{}, &domain.Category{}, &domain.Product{}, &domain.CartItem{}, &domain.User{},
	); err != nil {
		return err
	}

	// One row per (owner, product); the two constraints are mutually
	// exclusive because a row carries a user or a session key, never both.
	if err := a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items (user_id, product_id) WHERE user_id IS NOT NULL").Error; err != nil {
		return err
	}
	if err := a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_session_product ON cart_items (session_id, product_id) WHERE session_id IS NOT NULL").Error; err != nil {
		return err
	}
	_ = a.DB.Exec("ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_owner CHECK ((user_id IS NULL) <> (session_id IS NULL))").Error
	_ = a.DB.Exec("ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_quantity CHECK (quantity >= 1)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_cart_items_added_at ON cart_items (added_at)").Error

	return a.seed()
}

func (a *App) seed() error {
	var n int64
	if err := a.DB.Model(&domain.Brand{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	acme := domain.Brand{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	nimbus := domain.Brand{ID: uuid.New(), Name: "Nimbus", Slug: "nimbus"}
	shoes := domain.Category{ID: uuid.New(), Name: "Shoes", Slug: "shoes"}
	audio := domain.Category{ID: uuid.New(), Name: "Audio", Slug: "audio"}
	for _, b := range []domain.Brand{acme, nimbus} {
		if err := a.DB.Create(&b).Error; err != nil {
			return err
		}
	}
	for _, c := range []domain.Category{shoes, audio} {
		if err := a.DB.Create(&c).Error; err != nil {
			return err
		}
	}

	prods := []domain.Product{
		{ID: uuid.New(), Name: "Red Runner", Slug: "red-runner", BrandID: acme.ID, CategoryID: shoes.ID,
			Description: "Lightweight running shoe", Price: decimal.RequireFromString("59.90"),
			Rating: decimal.RequireFromString("4.3"), InStock: true},
		{ID: uuid.New(), Name: "Trail Blazer", Slug: "trail-blazer", BrandID: acme.ID, CategoryID: shoes.ID,
			Description: "All-terrain hiking shoe", Price: decimal.RequireFromString("89.00"),
			Rating: decimal.RequireFromString("4.7"), InStock: true},
		{ID: uuid.New(), Name: "Cloud Buds", Slug: "cloud-buds", BrandID: nimbus.ID, CategoryID: audio.ID,
			Description: "Wireless earbuds with noise cancelling", Price: decimal.RequireFromString("129.99"),
			Rating: decimal.RequireFromString("4.1"), InStock: true},
	}
	for _, p := range prods {
		if err := a.DB.Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
