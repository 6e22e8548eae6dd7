package client

import (
	"context"
	"fmt"
	"strings"
)

// Store is the persistence the client service needs.
type Store interface {
	List(ctx context.Context) ([]Client, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	Create(ctx context.Context, c *Client) error
	Save(ctx context.Context, c *Client) error
}

// Service handles client business logic
type Service struct {
	repo Store
}

// NewService creates client service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Client, error) {
	return s.repo.GetByID(ctx, id)
}

// Create trims input and inserts the client. Duplicate codes yield ErrCodeExists.
func (s *Service) Create(ctx context.Context, req *CreateClientRequest) (*Client, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.TrimSpace(req.Code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", ErrValidation)
	}

	c := &Client{
		Name:    name,
		Code:    code,
		Address: optional(req.Address),
		Phone:   optional(req.Phone),
		Email:   optional(req.Email),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the non-nil fields of req. An empty optional string clears the field.
func (s *Service) Update(ctx context.Context, id string, req *UpdateClientRequest) (*Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		c.Name = name
	}
	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: code must not be empty", ErrValidation)
		}
		c.Code = code
	}
	if req.Address != nil {
		c.Address = optional(*req.Address)
	}
	if req.Phone != nil {
		c.Phone = optional(*req.Phone)
	}
	if req.Email != nil {
		c.Email = optional(*req.Email)
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
