package claim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles claim data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates claim repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func selectClientSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "code")
}

// List returns every claim with its client's name and code, newest first.
func (r *Repository) List(ctx context.Context) ([]Claim, error) {
	var claims []Claim
	err := r.db.WithContext(ctx).
		Preload("Client", selectClientSummary).
		Order("creation_date DESC").
		Find(&claims).Error
	return claims, err
}

// ListWithProducts returns every claim with its line items loaded.
func (r *Repository) ListWithProducts(ctx context.Context) ([]Claim, error) {
	var claims []Claim
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Order("creation_date DESC").
		Find(&claims).Error
	return claims, err
}

// GetByID retrieves a claim with client, products and documents.
func (r *Repository) GetByID(ctx context.Context, id string) (*Claim, error) {
	var c Claim
	err := r.db.WithContext(ctx).
		Preload("Client", selectClientSummary).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("upload_date DESC") }).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "claim", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the claim row only; associations are written separately.
func (r *Repository) Create(ctx context.Context, c *Claim) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
	return r.classify(err, c)
}

// Save writes every column of the claim row.
func (r *Repository) Save(ctx context.Context, c *Claim) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
	return r.classify(err, c)
}

func (r *Repository) classify(err error, c *Claim) error {
	switch {
	case err == nil:
		return nil
	case isUniqueConstraintError(err):
		return invalid("claim_number", "claim number %s already exists", c.ClaimNumber)
	case isForeignKeyError(err):
		return invalid("client_id", "client %s does not exist", c.ClientID)
	default:
		return err
	}
}

// NextClaimNumber returns the next free CLM-<year>-NNNN number.
func (r *Repository) NextClaimNumber(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("CLM-%04d-", year)

	var numbers []string
	err := r.db.WithContext(ctx).Model(&Claim{}).
		Where("claim_number LIKE ?", prefix+"%").
		Order("claim_number DESC").
		Limit(1).
		Pluck("claim_number", &numbers).Error
	if err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		seq, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed claim number %q: %w", numbers[0], err)
		}
		next = seq + 1
	}
	if next > 9999 {
		return "", invalid("claim_number", "no claim numbers left for %d", year)
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// ListProducts returns the line items of a claim in insertion order.
func (r *Repository) ListProducts(ctx context.Context, claimID string) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("created_at").Find(&products).Error
	return products, err
}

func (r *Repository) GetProduct(ctx context.Context, claimID, productID string) (*Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Where("id = ? AND claim_id = ?", productID, claimID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "claim product", ID: productID}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) SaveProduct(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, claimID, productID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND claim_id = ?", productID, claimID).Delete(&Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "claim product", ID: productID}
	}
	return nil
}

// ListDocuments returns the attachments of a claim, newest upload first.
func (r *Repository) ListDocuments(ctx context.Context, claimID string) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("upload_date DESC").Find(&docs).Error
	return docs, err
}

func (r *Repository) CreateDocument(ctx context.Context, d *Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repository) DeleteDocument(ctx context.Context, claimID, documentID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND claim_id = ?", documentID, claimID).Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "claim document", ID: documentID}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

func isForeignKeyError(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
