package product

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

const searchLimit = 20

// Repository handles catalog data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates product repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the catalog ordered by style, then color
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).Order("style asc").Order("color asc").Find(&products).Error
	return products, err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Product, error) {
	return r.first(ctx, "code = ?", code)
}

// Search matches q case-insensitively against description, code, style and color.
func (r *Repository) Search(ctx context.Context, q string) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.List(ctx)
	}

	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	var products []Product
	err := r.db.WithContext(ctx).
		Where(`LOWER(description) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\' OR LOWER(style) LIKE ? ESCAPE '\' OR LOWER(color) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern).
		Order("style asc").Order("color asc").
		Limit(searchLimit).
		Find(&products).Error
	return products, err
}

// Create inserts a product
func (r *Repository) Create(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
