// Package memory holds map-backed implementations of the domain repositories.
// They mirror the postgres adapters' semantics (including the atomic
// insert-or-increment on carts) and back the test suites.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phenrril/shopapi/internal/domain"
)

type BrandRepo struct {
	mu     sync.RWMutex
	brands map[uuid.UUID]domain.Brand
}

func NewBrandRepo() *BrandRepo {
	return &BrandRepo{brands: make(map[uuid.UUID]domain.Brand)}
}

func (r *BrandRepo) Save(_ context.Context, b *domain.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[b.ID] = *b
	return nil
}

func (r *BrandRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brands[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *BrandRepo) FindBySlug(_ context.Context, slug string) (*domain.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.brands {
		if b.Slug == slug {
			b := b
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *BrandRepo) List(_ context.Context) ([]domain.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]domain.Brand, 0, len(r.brands))
	for _, b := range r.brands {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *BrandRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.brands, id)
	return nil
}

func (r *BrandRepo) NameExists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.brands {
		if b.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *BrandRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.brands {
		if b.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type CategoryRepo struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]domain.Category
}

func NewCategoryRepo() *CategoryRepo {
	return &CategoryRepo{categories: make(map[uuid.UUID]domain.Category)}
}

func (r *CategoryRepo) Save(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepo) FindBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *CategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *CategoryRepo) NameExists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *CategoryRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

type ProductRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]domain.Product
	brands   *BrandRepo
	cats     *CategoryRepo
}

func NewProductRepo(brands *BrandRepo, cats *CategoryRepo) *ProductRepo {
	return &ProductRepo{
		products: make(map[uuid.UUID]domain.Product),
		brands:   brands,
		cats:     cats,
	}
}

func (r *ProductRepo) Save(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.Brand, cp.Category = nil, nil
	r.products[p.ID] = cp
	return nil
}

func (r *ProductRepo) hydrate(p domain.Product) domain.Product {
	if r.brands != nil {
		if b, err := r.brands.FindByID(context.Background(), p.BrandID); err == nil {
			p.Brand = b
		}
	}
	if r.cats != nil {
		if c, err := r.cats.FindByID(context.Background(), p.CategoryID); err == nil {
			p.Category = c
		}
	}
	return p
}

func (r *ProductRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.hydrate(p)
	return &p, nil
}

func (r *ProductRepo) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			p = r.hydrate(p)
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func matches(p domain.Product, f domain.ProductFilter) bool {
	if f.BrandID != nil && p.BrandID != *f.BrandID {
		return false
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	if f.MinPrice != nil && p.Price.Cmp(*f.MinPrice) < 0 {
		return false
	}
	if f.MaxPrice != nil && p.Price.Cmp(*f.MaxPrice) > 0 {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		ls := strings.ToLower(s)
		if !strings.Contains(strings.ToLower(p.Name), ls) &&
			!strings.Contains(strings.ToLower(p.Description), ls) {
			return false
		}
	}
	return true
}

func (r *ProductRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []domain.Product
	for _, p := range r.products {
		if matches(p, f) {
			list = append(list, r.hydrate(p))
		}
	}

	field, desc := "created_at", true
	if f.Ordering != "" {
		field = f.Ordering
		desc = false
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			desc = true
		}
	}
	sort.Slice(list, func(i, j int) bool {
		c := compareByField(list[i], list[j], field)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return list, nil
}

func compareByField(a, b domain.Product, field string) int {
	switch field {
	case "price":
		return a.Price.Cmp(b.Price)
	case "rating":
		return a.Rating.Cmp(b.Rating)
	case "name":
		return strings.Compare(a.Name, b.Name)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *ProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepo) CountByBrand(_ context.Context, brandID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.products {
		if p.BrandID == brandID {
			n++
		}
	}
	return n, nil
}

func (r *ProductRepo) CountByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type CartRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]domain.CartItem
	products *ProductRepo
}

func NewCartRepo(products *ProductRepo) *CartRepo {
	return &CartRepo{items: make(map[uuid.UUID]domain.CartItem), products: products}
}

func sameOwner(item domain.CartItem, owner domain.CartOwner) bool {
	if owner.UserID != nil {
		return item.UserID != nil && *item.UserID == *owner.UserID
	}
	return item.SessionID != nil && *item.SessionID == *owner.SessionID
}

// Upsert holds the lock across the find-and-increment, giving the same
// no-lost-update guarantee the postgres adapter gets from its single
// ON CONFLICT statement.
func (r *CartRepo) Upsert(_ context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner := domain.CartOwner{UserID: item.UserID, SessionID: item.SessionID}
	for id, existing := range r.items {
		if sameOwner(existing, owner) && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			r.items[id] = existing
			*item = existing
			return nil
		}
	}
	cp := *item
	cp.Product = nil
	r.items[item.ID] = cp
	return nil
}

func (r *CartRepo) FindForOwner(_ context.Context, owner domain.CartOwner, itemID uuid.UUID) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || !sameOwner(item, owner) {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (r *CartRepo) Save(_ context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	cp.Product = nil
	r.items[item.ID] = cp
	return nil
}

func (r *CartRepo) DeleteForOwner(_ context.Context, owner domain.CartOwner, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || !sameOwner(item, owner) {
		return domain.ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *CartRepo) ClearOwner(_ context.Context, owner domain.CartOwner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if sameOwner(item, owner) {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *CartRepo) ListForOwner(ctx context.Context, owner domain.CartOwner) ([]domain.CartItem, error) {
	r.mu.Lock()
	var list []domain.CartItem
	for _, item := range r.items {
		if sameOwner(item, owner) {
			list = append(list, item)
		}
	}
	r.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].AddedAt.After(list[j].AddedAt) })
	if r.products != nil {
		for i := range list {
			if p, err := r.products.FindByID(ctx, list[i].ProductID); err == nil {
				list[i].Product = p
			}
		}
	}
	return list, nil
}

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepo) Save(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e := strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == e {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}
