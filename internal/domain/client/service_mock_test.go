package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

/* ==================== MOCKS ==================== */

type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Client), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, c *Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockStore) Save(ctx context.Context, c *Client) error {
	return m.Called(ctx, c).Error(0)
}

/* ==================== TESTS ==================== */

func TestCreateRejectsBlankFieldsWithoutTouchingStore(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	_, err := svc.Create(context.Background(), &CreateClientRequest{Name: "  ", Code: "X1"})
	assert.ErrorIs(t, err, ErrValidation)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePropagatesStoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.Anything, mock.MatchedBy(func(c *Client) bool {
		return c.Code == "DUP" && c.Email == nil
	})).Return(ErrCodeExists)

	_, err := NewService(store).Create(context.Background(), &CreateClientRequest{Name: "Dup", Code: "DUP"})
	assert.ErrorIs(t, err, ErrCodeExists)
	store.AssertExpectations(t)
}

func TestUpdateNotFoundSkipsSave(t *testing.T) {
	store := new(MockStore)
	store.On("GetByID", mock.Anything, "missing").Return(nil, ErrClientNotFound)

	name := "New"
	_, err := NewService(store).Update(context.Background(), "missing", &UpdateClientRequest{Name: &name})
	assert.True(t, errors.Is(err, ErrClientNotFound))
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	phone := "555-0100"
	existing := &Client{ID: "c1", Name: "Acme", Code: "ACME", Phone: &phone}

	store := new(MockStore)
	store.On("GetByID", mock.Anything, "c1").Return(existing, nil)
	store.On("Save", mock.Anything, existing).Return(nil)

	empty := " "
	updated, err := NewService(store).Update(context.Background(), "c1", &UpdateClientRequest{Phone: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.Phone)
	assert.Equal(t, "Acme", updated.Name)
	store.AssertExpectations(t)
}
