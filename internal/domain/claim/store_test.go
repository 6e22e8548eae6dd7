package claim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"claimdesk/internal/domain/client"
)

var storeNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:claim_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&client.Client{}, &Claim{}, &Product{}, &Document{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

func setupTestStore(t *testing.T) (*Store, *Repository, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db)
	store := NewStore(repo, client.NewRepository(db), 5*time.Second)
	store.now = func() time.Time { return storeNow }
	return store, repo, db
}

func seedClient(t *testing.T, db *gorm.DB, name, code string) *client.Client {
	t.Helper()
	c := &client.Client{Name: name, Code: code}
	require.NoError(t, db.Create(c).Error)
	return c
}

func validInput(clientID string) ClaimInput {
	return ClaimInput{
		ClientID:        clientID,
		Status:          StatusNew,
		Department:      DepartmentCustomerService,
		ClaimCategory:   CategoryManufacturingDefect,
		ProductCategory: ProductCategoryBroadloom,
		ClaimedAmount:   500,
		SolutionAmount:  120,
		Alerts:          []Alert{},
	}
}

func TestStoreCreateAllocatesNumbersAndAppends(t *testing.T) {
	store, _, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	first, err := store.Create(ctx, validInput(owner.ID))
	require.NoError(t, err)
	second, err := store.Create(ctx, validInput(owner.ID))
	require.NoError(t, err)

	assert.Equal(t, "CLM-2024-0001", first.ClaimNumber)
	assert.Equal(t, "CLM-2024-0002", second.ClaimNumber)
	assert.Equal(t, storeNow, first.CreationDate)
	assert.Equal(t, 380.0, first.SavedAmount)
	assert.Equal(t, 0, first.AlertCount)
	assert.NotNil(t, first.Alerts)

	claims := store.Claims()
	require.Len(t, claims, 2)
	assert.Equal(t, "Harbor Interiors", claims[0].ClientName())
	assert.Empty(t, store.Err())
}

func TestStoreCreateUnknownClient(t *testing.T) {
	store, _, db := setupTestStore(t)

	_, err := store.Create(context.Background(), validInput("0d5c7c2e-missing"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "client_id", verr.Field)
	assert.Contains(t, verr.Error(), "0d5c7c2e-missing")
	assert.Empty(t, store.Claims())
	assert.Equal(t, "Failed to add claim", store.Err())

	var count int64
	require.NoError(t, db.Model(&Claim{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStoreCreateRejectsBadInput(t *testing.T) {
	store, _, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	in := validInput(owner.ID)
	in.ClaimNumber = "2024-17"
	_, err := store.Create(ctx, in)
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	in = validInput(owner.ID)
	in.Installed = true
	_, err = store.Create(ctx, in)
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	in = validInput(owner.ID)
	in.ClaimNumber = "CLM-2023-0135"
	_, err = store.Create(ctx, in)
	require.NoError(t, err)
	_, err = store.Create(ctx, in)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "claim_number", verr.Field)

	assert.Len(t, store.Claims(), 1)
}

func TestStoreFetchAllNewestFirstWithClient(t *testing.T) {
	store, repo, db := setupTestStore(t)
	owner := seedClient(t, db, "Northwind Flooring", "NWF")
	ctx := context.Background()

	for i, d := range []int{1, 3, 2} {
		c := validInput(owner.ID).claim()
		c.ClaimNumber = fmt.Sprintf("CLM-2024-%04d", i+1)
		c.CreationDate = time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, c))
	}

	claims, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, []string{"CLM-2024-0002", "CLM-2024-0003", "CLM-2024-0001"},
		[]string{claims[0].ClaimNumber, claims[1].ClaimNumber, claims[2].ClaimNumber})
	assert.Equal(t, "Northwind Flooring", claims[0].ClientName())
	assert.Equal(t, "NWF", claims[0].Client.Code)

	state := store.State()
	assert.True(t, state.Loaded)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestStoreUpdateMergesAndKeepsAlerts(t *testing.T) {
	store, _, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	in := validInput(owner.ID)
	in.Alerts = []Alert{NewAlert(DelayedClaim{AgeDays: 45, ThresholdDays: 30})}
	created, err := store.Create(ctx, in)
	require.NoError(t, err)

	accepted := StatusAccepted
	updated, err := store.Update(ctx, created.ID, ClaimPatch{Status: &accepted})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)
	assert.Len(t, updated.Alerts, 1)

	claims := store.Claims()
	require.Len(t, claims, 1)
	assert.Equal(t, StatusAccepted, claims[0].Status)
	assert.Len(t, claims[0].Alerts, 1)
	assert.Equal(t, 1, claims[0].AlertCount)
	assert.Equal(t, "Harbor Interiors", claims[0].ClientName())
}

func TestStoreUpdateDerivesSavedAmount(t *testing.T) {
	store, repo, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	created, err := store.Create(ctx, validInput(owner.ID))
	require.NoError(t, err)

	claimed, solution := 100.0, 130.0
	updated, err := store.Update(ctx, created.ID, ClaimPatch{ClaimedAmount: &claimed, SolutionAmount: &solution})
	require.NoError(t, err)
	assert.InDelta(t, -30.0, updated.SavedAmount, 1e-6)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, -30.0, stored.SavedAmount, 1e-6)
}

func TestStoreUpdateUnknownID(t *testing.T) {
	store, _, _ := setupTestStore(t)

	closed := StatusClosed
	_, err := store.Update(context.Background(), "nope", ClaimPatch{Status: &closed})

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "nope", nf.ID)
	assert.Equal(t, "Failed to update claim", store.Err())
}

func TestStoreReplaceAlertsKeepsCountInSync(t *testing.T) {
	store, repo, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	created, err := store.Create(ctx, validInput(owner.ID))
	require.NoError(t, err)

	alerts := []Alert{
		NewAlert(QuantityExceeded{Lines: map[string]QuantityOverage{"p1": {Ordered: 10, Claimed: 15}}}),
		NewAlert(DelayedClaim{AgeDays: 31, ThresholdDays: 30}),
	}
	_, err = store.ReplaceAlerts(ctx, created.ID, alerts, storeNow)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.AlertCount)
	assert.Equal(t, len(stored.Alerts), stored.AlertCount)
	require.NotNil(t, stored.LastAlertCheck)
	assert.True(t, storeNow.Equal(*stored.LastAlertCheck))
	assert.IsType(t, QuantityExceeded{}, stored.Alerts[0].Details)

	for _, c := range store.Claims() {
		assert.Equal(t, len(c.Alerts), c.AlertCount)
	}
}

func TestStoreClaimsAreCopies(t *testing.T) {
	store, _, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")

	in := validInput(owner.ID)
	in.Alerts = []Alert{NewAlert(DelayedClaim{AgeDays: 45, ThresholdDays: 30})}
	_, err := store.Create(context.Background(), in)
	require.NoError(t, err)

	view := store.Claims()
	view[0].ClaimNumber = "CLM-9999-9999"
	view[0].Alerts[0].Message = "tampered"
	view[0].Client.Name = "tampered"

	fresh := store.Claims()
	assert.Equal(t, "CLM-2024-0001", fresh[0].ClaimNumber)
	assert.NotEqual(t, "tampered", fresh[0].Alerts[0].Message)
	assert.Equal(t, "Harbor Interiors", fresh[0].ClientName())
}

func TestStoreCalculateTotals(t *testing.T) {
	store, _, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	assert.Equal(t, Totals{}, store.CalculateTotals())

	for _, amounts := range [][2]float64{{500, 120}, {0, 0}, {99.99, 150.01}} {
		in := validInput(owner.ID)
		in.ClaimedAmount, in.SolutionAmount = amounts[0], amounts[1]
		c, err := store.Create(ctx, in)
		require.NoError(t, err)
		assert.InDelta(t, amounts[0]-amounts[1], c.SavedAmount, 1e-6)
	}

	totals := store.CalculateTotals()
	assert.InDelta(t, 599.99, totals.TotalClaimed, 1e-6)
	assert.InDelta(t, 270.01, totals.TotalSolution, 1e-6)
	assert.InDelta(t, 329.98, totals.TotalSaved, 1e-6)
	assert.True(t, math.Abs(totals.TotalSaved-(totals.TotalClaimed-totals.TotalSolution)) < 1e-6)
}

func TestStoreGetByIDLoadsAssociations(t *testing.T) {
	store, repo, db := setupTestStore(t)
	owner := seedClient(t, db, "Harbor Interiors", "HRB")
	ctx := context.Background()

	created, err := store.Create(ctx, validInput(owner.ID))
	require.NoError(t, err)
	require.NoError(t, repo.CreateProduct(ctx, &Product{ClaimID: created.ID, Style: "Tivoli", Color: "Ash", Quantity: 10}))
	require.NoError(t, repo.CreateDocument(ctx, &Document{ClaimID: created.ID, Name: "photo.jpg", Type: DocumentImage, URL: "https://files.example.com/photo.jpg", UploadDate: storeNow}))

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "HRB", got.Client.Code)
	assert.Len(t, got.Products, 1)
	assert.Len(t, got.Documents, 1)

	_, err = store.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Equal(t, "Failed to fetch claim", store.Err())
}
