package coop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	"github.com/verdecoop/verdecoop-backend/pkg/db"
	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/metrics"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type balanceInvalidator interface {
	InvalidateBalances(ctx context.Context, accountIDs ...uuid.UUID)
}

// Service exposes the cooperative pool operations.
type Service interface {
	Contribute(ctx context.Context, producerID, lotID uuid.UUID, quantity decimal.Decimal) (*models.Contribution, error)
	SellPool(ctx context.Context, unitPrice decimal.Decimal) (*PoolSaleResult, error)
	JoinCooperative(ctx context.Context, accountID uuid.UUID, plan enums.MembershipPlan) (*models.Membership, error)
	Overview(ctx context.Context) (*Overview, error)
}

// PoolSaleResult reports the committed outcome of selling the entire pool.
type PoolSaleResult struct {
	Sale          *models.CollectiveSale `json:"sale"`
	TotalQuantity decimal.Decimal        `json:"total_quantity"`
	GrossRevenue  decimal.Decimal        `json:"gross_revenue"`
	Commission    decimal.Decimal        `json:"commission"`
	Distributable decimal.Decimal        `json:"distributable"`
	Distributions []Payout               `json:"distributions"`
}

// Overview is the read model for the cooperative dashboard.
type Overview struct {
	Pool            *models.CooperativePool `json:"pool"`
	Contributions   []models.Contribution   `json:"contributions"`
	RecentMovements []models.FundMovement   `json:"recent_movements"`
	RecentSales     []models.CollectiveSale `json:"recent_sales"`
}

type service struct {
	repo     Repository
	tx       txRunner
	accounts wallet.Repository
	lots     lots.Repository
	balances balanceInvalidator
	metrics  *metrics.LedgerMetrics
}

// NewService builds a cooperative service with the required dependencies. The
// balance invalidator and metrics may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	accounts wallet.Repository,
	lotsRepo lots.Repository,
	balances balanceInvalidator,
	ledgerMetrics *metrics.LedgerMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coop repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if lotsRepo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		accounts: accounts,
		lots:     lotsRepo,
		balances: balances,
		metrics:  ledgerMetrics,
	}, nil
}

// Contribute moves quantity from a producer's lot into the pool. No money
// moves and no certificates are minted; the pool-total/contribution-sum
// invariant holds because both sides change in the same transaction.
func (s *service) Contribute(ctx context.Context, producerID, lotID uuid.UUID, quantity decimal.Decimal) (*models.Contribution, error) {
	start := time.Now()
	contribution, err := s.contribute(ctx, producerID, lotID, quantity)

	s.metrics.ObserveDuration(metrics.OpPoolContribution, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(metrics.OpPoolContribution)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpPoolContribution)
	return contribution, nil
}

func (s *service) contribute(ctx context.Context, producerID, lotID uuid.UUID, quantity decimal.Decimal) (*models.Contribution, error) {
	if producerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "producer id required")
	}
	if lotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if !quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}

	var contribution *models.Contribution
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lotsRepo := s.lots.WithTx(tx)

		lot, err := lotsRepo.FindByID(ctx, lotID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
		}
		if lot.OwnerID != producerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "lot does not belong to producer")
		}
		if lot.Status != enums.LotStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("lot is %s, not active", lot.Status))
		}
		if lot.QuantityAvailable.LessThan(quantity) {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "lot stock below requested quantity")
		}

		if err := lotsRepo.DecrementAvailable(ctx, lot.ID, quantity, false); err != nil {
			return err
		}

		pool, err := repo.FindPool(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cooperative pool")
		}

		contribution = &models.Contribution{
			PoolID:    pool.ID,
			AccountID: producerID,
			LotID:     lot.ID,
			Quantity:  quantity,
			Status:    enums.ContributionStatusInPool,
		}
		if err := repo.CreateContribution(ctx, contribution); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contribution")
		}
		if err := repo.IncrementPooledQty(ctx, pool.ID, quantity); err != nil {
			return err
		}

		movement := &models.FundMovement{
			PoolID:      pool.ID,
			AccountID:   &producerID,
			Type:        enums.FundMovementTypeUnification,
			Description: fmt.Sprintf("Unification of %s tCO2e from lot %s", quantity.String(), lot.Name),
			Value:       decimal.Zero,
		}
		if err := repo.CreateFundMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fund movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contribution, nil
}

// SellPool sells every in-pool contribution at unitPrice and distributes the
// proceeds. The plan is computed against a snapshot; every apply step carries
// a guard, and any mismatch aborts the whole sale with POOL_SALE_CONFLICT so
// the caller can retry against the new pool state.
func (s *service) SellPool(ctx context.Context, unitPrice decimal.Decimal) (*PoolSaleResult, error) {
	start := time.Now()
	result, contributors, err := s.sellPool(ctx, unitPrice)

	s.metrics.ObserveDuration(metrics.OpPoolSale, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(metrics.OpPoolSale)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpPoolSale)

	if s.balances != nil && len(contributors) > 0 {
		s.balances.InvalidateBalances(ctx, contributors...)
	}
	return result, nil
}

func (s *service) sellPool(ctx context.Context, unitPrice decimal.Decimal) (*PoolSaleResult, []uuid.UUID, error) {
	if !unitPrice.IsPositive() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	var result *PoolSaleResult
	var contributors []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		accounts := s.accounts.WithTx(tx)

		pool, err := repo.FindPool(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cooperative pool")
		}

		contributions, err := repo.ListInPoolContributions(ctx, pool.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contributions")
		}

		plan, err := BuildDistribution(contributions, unitPrice, pool.CommissionPercent)
		if err != nil {
			return err
		}
		if !plan.TotalQuantity.Equal(pool.TotalPooledQty) {
			return pkgerrors.New(pkgerrors.CodePoolSaleConflict, "pool total does not match contributions")
		}

		sale := &models.CollectiveSale{
			PoolID:        pool.ID,
			TotalQuantity: plan.TotalQuantity,
			UnitPrice:     plan.UnitPrice,
			GrossRevenue:  plan.GrossRevenue,
			Commission:    plan.Commission,
			Status:        enums.CollectiveSaleStatusCompleted,
		}
		if err := repo.CreateCollectiveSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create collective sale")
		}

		ids := make([]uuid.UUID, 0, len(plan.Payouts))
		for _, payout := range plan.Payouts {
			ids = append(ids, payout.ContributionID)
		}
		marked, err := repo.MarkContributionsSold(ctx, ids)
		if err != nil {
			return err
		}
		if marked != int64(len(ids)) {
			return pkgerrors.New(pkgerrors.CodePoolSaleConflict, "contributions changed while the sale was being planned")
		}

		if err := repo.ZeroPooledQty(ctx, pool.ID, pool.TotalPooledQty); err != nil {
			return err
		}
		if err := repo.AddFundBalance(ctx, pool.ID, plan.FundTotal); err != nil {
			return err
		}

		movement := &models.FundMovement{
			PoolID:      pool.ID,
			Type:        enums.FundMovementTypeCommission,
			Description: fmt.Sprintf("Commission on collective sale of %s tCO2e", plan.TotalQuantity.String()),
			Value:       plan.FundTotal,
		}
		if err := repo.CreateFundMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fund movement")
		}

		for _, payout := range plan.Payouts {
			if err := accounts.CreditBalance(ctx, payout.AccountID, payout.Amount); err != nil {
				return err
			}
			contributors = append(contributors, payout.AccountID)
		}

		result = &PoolSaleResult{
			Sale:          sale,
			TotalQuantity: plan.TotalQuantity,
			GrossRevenue:  plan.GrossRevenue,
			Commission:    plan.Commission,
			Distributable: plan.Distributable,
			Distributions: plan.Payouts,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, contributors, nil
}

// JoinCooperative charges the plan fee and registers the membership. The fee
// lands in the cooperative fund, not in another member's pocket.
func (s *service) JoinCooperative(ctx context.Context, accountID uuid.UUID, plan enums.MembershipPlan) (*models.Membership, error) {
	start := time.Now()
	membership, err := s.join(ctx, accountID, plan)

	s.metrics.ObserveDuration(metrics.OpMembershipJoin, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(metrics.OpMembershipJoin)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpMembershipJoin)

	if s.balances != nil {
		s.balances.InvalidateBalances(ctx, accountID)
	}
	return membership, nil
}

func (s *service) join(ctx context.Context, accountID uuid.UUID, plan enums.MembershipPlan) (*models.Membership, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !plan.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid membership plan %q", plan))
	}
	fee := plan.Fee()

	var membership *models.Membership
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		accounts := s.accounts.WithTx(tx)

		if _, err := accounts.FindAccount(ctx, accountID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
		}

		if _, err := repo.FindMembershipByAccount(ctx, accountID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "account already joined the cooperative")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
		}

		if err := accounts.DebitBalance(ctx, accountID, fee); err != nil {
			return err
		}

		pool, err := repo.FindPool(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cooperative pool")
		}

		membership = &models.Membership{
			AccountID: accountID,
			PoolID:    pool.ID,
			Plan:      plan,
			FeePaid:   true,
		}
		if err := repo.CreateMembership(ctx, membership); err != nil {
			if db.IsUniqueViolation(err, "memberships_account_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "account already joined the cooperative")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}

		if err := repo.AddFundBalance(ctx, pool.ID, fee); err != nil {
			return err
		}

		movement := &models.FundMovement{
			PoolID:      pool.ID,
			AccountID:   &accountID,
			Type:        enums.FundMovementTypeMembershipFee,
			Description: fmt.Sprintf("Membership fee (%s plan)", plan),
			Value:       fee,
		}
		if err := repo.CreateFundMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fund movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	pool, err := s.repo.FindPool(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cooperative pool")
	}

	contributions, err := s.repo.ListInPoolContributions(ctx, pool.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contributions")
	}

	movements, err := s.repo.ListFundMovements(ctx, pool.ID, pagination.Params{Limit: 10})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fund movements")
	}

	sales, err := s.repo.ListCollectiveSales(ctx, pool.ID, pagination.Params{Limit: 10})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collective sales")
	}

	return &Overview{
		Pool:            pool,
		Contributions:   contributions,
		RecentMovements: movements,
		RecentSales:     sales,
	}, nil
}
