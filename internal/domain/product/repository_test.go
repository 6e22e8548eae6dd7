package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:product_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Product{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	repo := NewRepository(db)
	seed := []Product{
		{Code: "T-100-GR", Style: "Tundra", Color: "Granite", Description: "Tundra carpet tile"},
		{Code: "B-200-SA", Style: "Bayside", Color: "Sand", Description: "Bayside broadloom 12ft"},
		{Code: "T-100-AS", Style: "Tundra", Color: "Ash", Description: "Tundra carpet tile"},
		{Code: "X_50%", Style: "Axis", Color: "Coal", Description: "Promo 50% off"},
	}
	for i := range seed {
		require.NoError(t, repo.Create(context.Background(), &seed[i]))
	}
	return repo
}

func TestListOrderedByStyleThenColor(t *testing.T) {
	repo := setupTestRepo(t)

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 4)

	got := make([]string, 0, len(products))
	for _, p := range products {
		got = append(got, p.Code)
	}
	assert.Equal(t, []string{"X_50%", "B-200-SA", "T-100-AS", "T-100-GR"}, got)
}

func TestSearchCaseInsensitive(t *testing.T) {
	repo := setupTestRepo(t)

	products, err := repo.Search(context.Background(), "TUNDRA")
	require.NoError(t, err)
	assert.Len(t, products, 2)

	products, err = repo.Search(context.Background(), "sand")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "B-200-SA", products[0].Code)
}

func TestSearchEscapesWildcards(t *testing.T) {
	repo := setupTestRepo(t)

	products, err := repo.Search(context.Background(), "50%")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "X_50%", products[0].Code)
}

func TestGetByCodeNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
