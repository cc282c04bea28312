package lots

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAccountFinder struct {
	accounts map[uuid.UUID]*models.Account
}

func (s *stubAccountFinder) FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLotsRepo struct {
	lots     map[uuid.UUID]*models.Lot
	sales    map[uuid.UUID]bool
	deleted  []uuid.UUID
	archived []uuid.UUID
}

func newStubLotsRepo() *stubLotsRepo {
	return &stubLotsRepo{lots: map[uuid.UUID]*models.Lot{}, sales: map[uuid.UUID]bool{}}
}

func (s *stubLotsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLotsRepo) Create(ctx context.Context, lot *models.Lot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	s.lots[lot.ID] = lot
	return nil
}

func (s *stubLotsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	if lot, ok := s.lots[id]; ok {
		return lot, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLotsRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*LotList, error) {
	list := &LotList{}
	for _, lot := range s.lots {
		list.Lots = append(list.Lots, *lot)
	}
	return list, nil
}

func (s *stubLotsRepo) DecrementAvailable(ctx context.Context, id uuid.UUID, qty decimal.Decimal, recordSold bool) error {
	panic("not implemented")
}

func (s *stubLotsRepo) Archive(ctx context.Context, id uuid.UUID) error {
	s.archived = append(s.archived, id)
	s.lots[id].Status = enums.LotStatusArchived
	return nil
}

func (s *stubLotsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.lots, id)
	return nil
}

func (s *stubLotsRepo) HasSales(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.sales[id], nil
}

func newLotsService(t *testing.T, repo *stubLotsRepo, accounts *stubAccountFinder) Service {
	t.Helper()

	svc, err := NewService(repo, accounts, fakeTxRunner{})
	require.NoError(t, err)
	return svc
}

func TestCreateValidatesInput(t *testing.T) {
	repo := newStubLotsRepo()
	owner := &models.Account{ID: uuid.New()}
	svc := newLotsService(t, repo, &stubAccountFinder{accounts: map[uuid.UUID]*models.Account{owner.ID: owner}})
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		OwnerID:   owner.ID,
		Name:      "",
		Type:      "reflorestamento",
		UnitPrice: decimal.RequireFromString("10.00"),
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{
		OwnerID:   owner.ID,
		Name:      "Lote",
		Type:      "reflorestamento",
		UnitPrice: decimal.Zero,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{
		OwnerID:   uuid.New(),
		Name:      "Lote",
		Type:      "reflorestamento",
		UnitPrice: decimal.RequireFromString("10.00"),
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAccountNotFound))
}

func TestCreateDefaultsCertifyingBody(t *testing.T) {
	repo := newStubLotsRepo()
	owner := &models.Account{ID: uuid.New()}
	svc := newLotsService(t, repo, &stubAccountFinder{accounts: map[uuid.UUID]*models.Account{owner.ID: owner}})

	lot, err := svc.Create(context.Background(), CreateInput{
		OwnerID:   owner.ID,
		Name:      "Lote Cerrado",
		Type:      "conservacao",
		UnitPrice: decimal.RequireFromString("18.00"),
		Quantity:  decimal.RequireFromString("100.000"),
	})
	require.NoError(t, err)
	require.Equal(t, "Verra VCS", lot.CertifyingBody)
	require.Equal(t, enums.LotStatusActive, lot.Status)
	require.True(t, lot.QuantitySold.IsZero())
}

func TestDeleteArchivesWhenReferencedBySales(t *testing.T) {
	repo := newStubLotsRepo()
	owner := &models.Account{ID: uuid.New()}
	svc := newLotsService(t, repo, &stubAccountFinder{accounts: map[uuid.UUID]*models.Account{owner.ID: owner}})
	ctx := context.Background()

	lot, err := svc.Create(ctx, CreateInput{
		OwnerID:   owner.ID,
		Name:      "Lote Vendido",
		Type:      "reflorestamento",
		UnitPrice: decimal.RequireFromString("20.00"),
		Quantity:  decimal.RequireFromString("10.000"),
	})
	require.NoError(t, err)
	repo.sales[lot.ID] = true

	result, err := svc.Delete(ctx, lot.ID)
	require.NoError(t, err)
	require.True(t, result.Archived)
	require.Contains(t, repo.archived, lot.ID)
	require.Empty(t, repo.deleted)
}

func TestDeleteRemovesUnreferencedLot(t *testing.T) {
	repo := newStubLotsRepo()
	owner := &models.Account{ID: uuid.New()}
	svc := newLotsService(t, repo, &stubAccountFinder{accounts: map[uuid.UUID]*models.Account{owner.ID: owner}})
	ctx := context.Background()

	lot, err := svc.Create(ctx, CreateInput{
		OwnerID:   owner.ID,
		Name:      "Lote Novo",
		Type:      "reflorestamento",
		UnitPrice: decimal.RequireFromString("20.00"),
		Quantity:  decimal.RequireFromString("10.000"),
	})
	require.NoError(t, err)

	result, err := svc.Delete(ctx, lot.ID)
	require.NoError(t, err)
	require.False(t, result.Archived)
	require.Contains(t, repo.deleted, lot.ID)
}

func TestDeleteUnknownLot(t *testing.T) {
	repo := newStubLotsRepo()
	svc := newLotsService(t, repo, &stubAccountFinder{accounts: map[uuid.UUID]*models.Account{}})

	_, err := svc.Delete(context.Background(), uuid.New())
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeLotNotFound))
}
