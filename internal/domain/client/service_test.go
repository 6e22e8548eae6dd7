package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:client_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Client{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	repo := NewRepository(db)
	return NewService(repo), repo
}

func TestCreateTrimsAndPersists(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &CreateClientRequest{Name: "  Acme Flooring ", Code: " ACM01 ", Phone: "  "})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Acme Flooring", c.Name)
	assert.Equal(t, "ACM01", c.Code)
	assert.Nil(t, c.Phone)

	byCode, err := repo.GetByCode(ctx, "ACM01")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateClientRequest{Name: "One", Code: "DUP"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateClientRequest{Name: "Two", Code: "DUP"})
	assert.True(t, errors.Is(err, ErrCodeExists), "got %v", err)
}

func TestListOrderedByName(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Zenith Carpets", "Alpha Interiors", "Maple Homes"} {
		_, err := svc.Create(ctx, &CreateClientRequest{Name: name, Code: name[:3]})
		require.NoError(t, err)
	}

	clients, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "Alpha Interiors", clients[0].Name)
	assert.Equal(t, "Zenith Carpets", clients[2].Name)
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &CreateClientRequest{Name: "Acme", Code: "ACM", Email: "ops@acme.test"})
	require.NoError(t, err)

	phone := " 555-0100 "
	clearEmail := ""
	updated, err := svc.Update(ctx, c.ID, &UpdateClientRequest{Phone: &phone, Email: &clearEmail})
	require.NoError(t, err)

	assert.Equal(t, "Acme", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0100", *updated.Phone)
	assert.Nil(t, updated.Email)
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrClientNotFound)
}
