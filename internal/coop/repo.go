package coop

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

// Repository manages persistence for the cooperative pool aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPool(ctx context.Context) (*models.CooperativePool, error)
	IncrementPooledQty(ctx context.Context, poolID uuid.UUID, qty decimal.Decimal) error
	ZeroPooledQty(ctx context.Context, poolID uuid.UUID, snapshot decimal.Decimal) error
	AddFundBalance(ctx context.Context, poolID uuid.UUID, amount decimal.Decimal) error
	CreateContribution(ctx context.Context, contribution *models.Contribution) error
	ListInPoolContributions(ctx context.Context, poolID uuid.UUID) ([]models.Contribution, error)
	MarkContributionsSold(ctx context.Context, ids []uuid.UUID) (int64, error)
	CreateCollectiveSale(ctx context.Context, sale *models.CollectiveSale) error
	ListCollectiveSales(ctx context.Context, poolID uuid.UUID, params pagination.Params) ([]models.CollectiveSale, error)
	CreateMembership(ctx context.Context, membership *models.Membership) error
	FindMembershipByAccount(ctx context.Context, accountID uuid.UUID) (*models.Membership, error)
	CreateFundMovement(ctx context.Context, movement *models.FundMovement) error
	ListFundMovements(ctx context.Context, poolID uuid.UUID, params pagination.Params) ([]models.FundMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cooperative repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindPool loads the singleton pool row seeded by the migrations.
func (r *repository) FindPool(ctx context.Context) (*models.CooperativePool, error) {
	var pool models.CooperativePool
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *repository) IncrementPooledQty(ctx context.Context, poolID uuid.UUID, qty decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cooperative_pools
		SET total_pooled_qty = total_pooled_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, poolID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment pooled quantity")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cooperative pool not found")
	}
	return nil
}

// ZeroPooledQty resets the pooled total, but only if it still matches the
// snapshot the sale was planned against. A mismatch means a concurrent
// contribution or sale landed in between.
func (r *repository) ZeroPooledQty(ctx context.Context, poolID uuid.UUID, snapshot decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cooperative_pools
		SET total_pooled_qty = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND total_pooled_qty = ?
	`, poolID, snapshot)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "zero pooled quantity")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodePoolSaleConflict, "pool changed while the sale was being planned")
	}
	return nil
}

func (r *repository) AddFundBalance(ctx context.Context, poolID uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cooperative_pools
		SET fund_balance = fund_balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, poolID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "add fund balance")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cooperative pool not found")
	}
	return nil
}

func (r *repository) CreateContribution(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Create(contribution).Error
}

func (r *repository) ListInPoolContributions(ctx context.Context, poolID uuid.UUID) ([]models.Contribution, error) {
	var contributions []models.Contribution
	err := r.db.WithContext(ctx).
		Where("pool_id = ? AND status = ?", poolID, enums.ContributionStatusInPool).
		Order("created_at ASC").
		Find(&contributions).Error
	if err != nil {
		return nil, err
	}
	return contributions, nil
}

// MarkContributionsSold flips the planned contributions to sold. The status
// guard makes the returned row count a conflict detector: fewer rows than ids
// means someone else already sold one of them.
func (r *repository) MarkContributionsSold(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Where("id IN ? AND status = ?", ids, enums.ContributionStatusInPool).
		Update("status", enums.ContributionStatusSold)
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark contributions sold")
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateCollectiveSale(ctx context.Context, sale *models.CollectiveSale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) ListCollectiveSales(ctx context.Context, poolID uuid.UUID, params pagination.Params) ([]models.CollectiveSale, error) {
	var sales []models.CollectiveSale
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repository) CreateMembership(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *repository) FindMembershipByAccount(ctx context.Context, accountID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) CreateFundMovement(ctx context.Context, movement *models.FundMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListFundMovements(ctx context.Context, poolID uuid.UUID, params pagination.Params) ([]models.FundMovement, error) {
	var movements []models.FundMovement
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
