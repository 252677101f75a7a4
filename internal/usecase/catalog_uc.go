package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/shopapi/internal/domain"
)

var minPrice = decimal.RequireFromString("0.01")
var maxRating = decimal.NewFromInt(5)

type CatalogUC struct {
	Brands     domain.BrandRepo
	Categories domain.CategoryRepo
	Products   domain.ProductRepo
}

// ListProducts applies the filter set and returns the full ordered result;
// the transport layer paginates. Unknown ordering fields are rejected.
func (uc *CatalogUC) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if f.Ordering != "" {
		field := strings.TrimPrefix(f.Ordering, "-")
		if _, ok := domain.OrderingFields[field]; !ok {
			return nil, domain.Invalid("ordering", "unsupported ordering field: "+field)
		}
	}
	return uc.Products.List(ctx, f)
}

func (uc *CatalogUC) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	if slug == "" {
		return nil, domain.ErrNotFound
	}
	return uc.Products.FindBySlug(ctx, slug)
}

type ProductInput struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	BrandID     uuid.UUID       `json:"brand_id"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Rating      decimal.Decimal `json:"rating"`
	InStock     bool            `json:"in_stock"`
	ImageURL    string          `json:"image_url"`
}

func (in ProductInput) validate() domain.ValidationError {
	errs := domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "name is required"
	}
	if in.Price.IsNegative() {
		errs["price"] = "price must not be negative"
	} else if in.InStock && in.Price.Cmp(minPrice) < 0 {
		errs["price"] = "price must be at least 0.01"
	} else if !in.InStock && in.Price.IsPositive() {
		errs["price"] = "out-of-stock products must have price 0"
	}
	if in.Rating.IsNegative() || in.Rating.Cmp(maxRating) > 0 {
		errs["rating"] = "rating must be between 0 and 5"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (uc *CatalogUC) CreateProduct(ctx context.Context, caller domain.Caller, in ProductInput) (*domain.Product, error) {
	if !caller.Staff {
		return nil, domain.ErrPermissionDenied
	}
	if errs := in.validate(); errs != nil {
		return nil, errs
	}
	if _, err := uc.Brands.FindByID(ctx, in.BrandID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("brand_id", "brand does not exist")
		}
		return nil, err
	}
	if _, err := uc.Categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("category_id", "category does not exist")
		}
		return nil, err
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		var err error
		slug, err = domain.UniqueSlug(ctx, in.Name, uc.Products.SlugExists)
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := uc.Products.SlugExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.Conflictf("product with slug %q already exists", slug)
		}
	}

	p := &domain.Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Slug:        slug,
		BrandID:     in.BrandID,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Price:       in.Price,
		Rating:      in.Rating,
		InStock:     in.InStock,
		ImageURL:    in.ImageURL,
	}
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return uc.Products.FindBySlug(ctx, slug)
}

// UpdateProduct replaces the mutable fields. The slug is immutable after
// creation even when the name changes.
func (uc *CatalogUC) UpdateProduct(ctx context.Context, caller domain.Caller, slug string, in ProductInput) (*domain.Product, error) {
	if !caller.Staff {
		return nil, domain.ErrPermissionDenied
	}
	p, err := uc.Products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if errs := in.validate(); errs != nil {
		return nil, errs
	}
	if _, err := uc.Brands.FindByID(ctx, in.BrandID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("brand_id", "brand does not exist")
		}
		return nil, err
	}
	if _, err := uc.Categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("category_id", "category does not exist")
		}
		return nil, err
	}
	p.Name = in.Name
	p.BrandID = in.BrandID
	p.CategoryID = in.CategoryID
	p.Description = in.Description
	p.Price = in.Price
	p.Rating = in.Rating
	p.InStock = in.InStock
	p.ImageURL = in.ImageURL
	p.Brand, p.Category = nil, nil
	if err := uc.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return uc.Products.FindBySlug(ctx, slug)
}

func (uc *CatalogUC) DeleteProduct(ctx context.Context, caller domain.Caller, slug string) error {
	if !caller.Staff {
		return domain.ErrPermissionDenied
	}
	p, err := uc.Products.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return uc.Products.Delete(ctx, p.ID)
}

func (uc *CatalogUC) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return uc.Brands.List(ctx)
}

func (uc *CatalogUC) CreateBrand(ctx context.Context, caller domain.Caller, name string) (*domain.Brand, error) {
	if !caller.Staff {
		return nil, domain.ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	taken, err := uc.Brands.NameExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.Conflictf("brand %q already exists", name)
	}
	slug, err := domain.UniqueSlug(ctx, name, uc.Brands.SlugExists)
	if err != nil {
		return nil, err
	}
	b := &domain.Brand{ID: uuid.New(), Name: name, Slug: slug}
	if err := uc.Brands.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBrand refuses to delete a brand that products still reference.
func (uc *CatalogUC) DeleteBrand(ctx context.Context, caller domain.Caller, slug string) error {
	if !caller.Staff {
		return domain.ErrPermissionDenied
	}
	b, err := uc.Brands.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	n, err := uc.Products.CountByBrand(ctx, b.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflictf("brand %q is referenced by %d products", b.Name, n)
	}
	return uc.Brands.Delete(ctx, b.ID)
}

func (uc *CatalogUC) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return uc.Categories.List(ctx)
}

func (uc *CatalogUC) CreateCategory(ctx context.Context, caller domain.Caller, name string) (*domain.Category, error) {
	if !caller.Staff {
		return nil, domain.ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	taken, err := uc.Categories.NameExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.Conflictf("category %q already exists", name)
	}
	slug, err := domain.UniqueSlug(ctx, name, uc.Categories.SlugExists)
	if err != nil {
		return nil, err
	}
	c := &domain.Category{ID: uuid.New(), Name: name, Slug: slug}
	if err := uc.Categories.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CatalogUC) DeleteCategory(ctx context.Context, caller domain.Caller, slug string) error {
	if !caller.Staff {
		return domain.ErrPermissionDenied
	}
	c, err := uc.Categories.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	n, err := uc.Products.CountByCategory(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflictf("category %q is referenced by %d products", c.Name, n)
	}
	return uc.Categories.Delete(ctx, c.ID)
}
