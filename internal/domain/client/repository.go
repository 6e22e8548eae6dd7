package client

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository handles client data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates client repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all clients ordered by name
func (r *Repository) List(ctx context.Context) ([]Client, error) {
	var clients []Client
	err := r.db.WithContext(ctx).Order("name").Find(&clients).Error
	return clients, err
}

// GetByID retrieves client by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Client, error) {
	var c Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode retrieves client by its short code
func (r *Repository) GetByCode(ctx context.Context, code string) (*Client, error) {
	var c Client
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new client
func (r *Repository) Create(ctx context.Context, c *Client) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrCodeExists
		}
		return err
	}
	return nil
}

// Save writes every column of c
func (r *Repository) Save(ctx context.Context, c *Client) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrCodeExists
		}
		return err
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
