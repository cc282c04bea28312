package lots

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

func setupLotsTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Lot{}, &models.Sale{}))
	return db
}

func createLot(t *testing.T, db *gorm.DB, owner uuid.UUID, available string) *models.Lot {
	t.Helper()

	lot := &models.Lot{
		OwnerID:           owner,
		Name:              "Reflorestamento Mata Atlântica",
		Type:              "reflorestamento",
		CertifyingBody:    "Verra VCS",
		UnitPrice:         decimal.RequireFromString("25.00"),
		QuantityAvailable: decimal.RequireFromString(available),
		QuantitySold:      decimal.Zero,
		Status:            enums.LotStatusActive,
	}
	require.NoError(t, db.Create(lot).Error)
	return lot
}

func TestDecrementAvailableGuardsStock(t *testing.T) {
	db := setupLotsTestDB(t, "lots_decrement")
	repo := NewRepository(db)
	ctx := context.Background()

	lot := createLot(t, db, uuid.New(), "10.000")

	require.NoError(t, repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("6.500"), true))

	err := repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("6.500"), true)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, reloaded.QuantityAvailable.Equal(decimal.RequireFromString("3.500")))
	require.True(t, reloaded.QuantitySold.Equal(decimal.RequireFromString("6.500")))
}

func TestDecrementAvailableRejectsStaleStockRead(t *testing.T) {
	db := setupLotsTestDB(t, "lots_stale_read")
	repo := NewRepository(db)
	ctx := context.Background()

	lot := createLot(t, db, uuid.New(), "10.000")

	// A caller reads the lot and sees enough stock for its order.
	seen, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, seen.QuantityAvailable.GreaterThanOrEqual(decimal.RequireFromString("8.000")))

	// Another buyer drains most of the stock before the first order lands.
	require.NoError(t, repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("7.000"), true))

	// The guarded UPDATE re-checks stock atomically, so the stale read
	// cannot oversell the lot.
	err = repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("8.000"), true)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, reloaded.QuantityAvailable.Equal(decimal.RequireFromString("3.000")))
	require.False(t, reloaded.QuantityAvailable.IsNegative())
	require.True(t, reloaded.QuantitySold.Equal(decimal.RequireFromString("7.000")))
}

func TestDecrementAvailableWithoutRecordingSold(t *testing.T) {
	db := setupLotsTestDB(t, "lots_pool_decrement")
	repo := NewRepository(db)
	ctx := context.Background()

	lot := createLot(t, db, uuid.New(), "8.000")

	require.NoError(t, repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("3.000"), false))

	reloaded, err := repo.FindByID(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, reloaded.QuantityAvailable.Equal(decimal.RequireFromString("5.000")))
	require.True(t, reloaded.QuantitySold.IsZero())
}

func TestDecrementAvailableRejectsInactiveLot(t *testing.T) {
	db := setupLotsTestDB(t, "lots_inactive")
	repo := NewRepository(db)
	ctx := context.Background()

	lot := createLot(t, db, uuid.New(), "10.000")
	require.NoError(t, repo.Archive(ctx, lot.ID))

	err := repo.DecrementAvailable(ctx, lot.ID, decimal.RequireFromString("1.000"), true)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))
}

func TestHasSales(t *testing.T) {
	db := setupLotsTestDB(t, "lots_has_sales")
	repo := NewRepository(db)
	ctx := context.Background()

	lot := createLot(t, db, uuid.New(), "5.000")

	referenced, err := repo.HasSales(ctx, lot.ID)
	require.NoError(t, err)
	require.False(t, referenced)

	require.NoError(t, db.Create(&models.Sale{
		LotID:      lot.ID,
		BuyerID:    uuid.New(),
		SellerID:   lot.OwnerID,
		Quantity:   decimal.RequireFromString("2.000"),
		TotalValue: decimal.RequireFromString("50.00"),
	}).Error)

	referenced, err = repo.HasSales(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, referenced)
}

func TestListFiltersByOwnerAndStatus(t *testing.T) {
	db := setupLotsTestDB(t, "lots_list")
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	createLot(t, db, owner, "1.000")
	archived := createLot(t, db, owner, "2.000")
	require.NoError(t, repo.Archive(ctx, archived.ID))
	createLot(t, db, uuid.New(), "3.000")

	active := enums.LotStatusActive
	list, err := repo.List(ctx, pagination.Params{}, ListFilters{OwnerID: &owner, Status: &active})
	require.NoError(t, err)
	require.Len(t, list.Lots, 1)
	require.Equal(t, owner, list.Lots[0].OwnerID)
	require.Equal(t, enums.LotStatusActive, list.Lots[0].Status)
}
