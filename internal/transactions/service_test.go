package transactions

import (
	"context"
	"testing"
	"time"

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

func setupTransactionsTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Transaction{}))
	return db
}

func TestBuildDefaultsReference(t *testing.T) {
	db := setupTransactionsTestDB(t, "txns_build")
	repo := NewRepository(db)

	entry, err := Build(RecordInput{
		AccountID: uuid.New(),
		Type:      enums.TransactionTypeBuy,
		Amount:    decimal.RequireFromString("2.000"),
		Price:     decimal.RequireFromString("25.00"),
		Total:     decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "—", entry.Reference)
	require.Equal(t, enums.TransactionStatusPaid, entry.Status)

	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEqual(t, uuid.Nil, entry.ID)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	_, err := Build(RecordInput{
		AccountID: uuid.New(),
		Type:      enums.TransactionType("steal"),
		Amount:    decimal.RequireFromString("1.000"),
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = Build(RecordInput{
		AccountID: uuid.New(),
		Type:      enums.TransactionTypeBuy,
		Amount:    decimal.Zero,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity))
}

func TestListByAccountPaginates(t *testing.T) {
	db := setupTransactionsTestDB(t, "txns_list")
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	account := uuid.New()
	base := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := models.Transaction{
			AccountID: account,
			Type:      enums.TransactionTypeBuy,
			Reference: "Lote Teste",
			Amount:    decimal.RequireFromString("1.000"),
			Price:     decimal.RequireFromString("10.00"),
			Total:     decimal.RequireFromString("10.00"),
			Status:    enums.TransactionStatusPaid,
		}
		require.NoError(t, db.Create(&entry).Error)
		require.NoError(t, db.Model(&entry).Update("created_at", base.Add(time.Duration(i)*time.Second)).Error)
	}

	ctx := context.Background()
	first, err := svc.ListByAccount(ctx, account, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByAccount(ctx, account, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 1)
	require.Empty(t, second.NextCursor)
}
