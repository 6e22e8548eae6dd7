package invoice

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// Repository handles invoice data access
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns invoices with client name/code, newest first
func (r *Repository) List(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	err := r.db.WithContext(ctx).
		Preload("Client", selectClientRef).
		Order("invoice_date desc").
		Find(&invoices).Error
	return invoices, err
}

// GetByID retrieves invoice with client and items
func (r *Repository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByNumber retrieves invoice with client and items by its invoice number
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.first(ctx, "invoice_number = ?", number)
}

// Create inserts the invoice together with its items
func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*Invoice, error) {
	var inv Invoice
	err := r.db.WithContext(ctx).
		Preload("Client", selectClientRef).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where(query, arg).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func selectClientRef(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "code")
}
