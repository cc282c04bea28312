package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/transactions"
	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/metrics"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// certificateMinter issues certificates for whole tons inside the trade
// transaction. Any mint failure rolls the whole trade back.
type certificateMinter interface {
	Mint(ctx context.Context, tx *gorm.DB, lot *models.Lot, ownerID uuid.UUID, saleID *uuid.UUID, count int) ([]models.Certificate, error)
}

// balanceInvalidator drops cached balances after a committed trade.
type balanceInvalidator interface {
	InvalidateBalances(ctx context.Context, accountIDs ...uuid.UUID)
}

// Service executes direct trades and reads sale history.
type Service interface {
	ExecuteTrade(ctx context.Context, input TradeInput) (*TradeResult, error)
	ListSales(ctx context.Context, accountID uuid.UUID, role SaleRole, params pagination.Params) (*SaleList, error)
}

// TradeInput describes one purchase. A nil SellerID means the counterparty is
// the cooperative pool: no sale record is written and nobody is credited.
type TradeInput struct {
	BuyerID   uuid.UUID
	SellerID  *uuid.UUID
	LotID     uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// TradeResult reports the committed effects of a trade.
type TradeResult struct {
	NewBuyerBalance decimal.Decimal      `json:"new_buyer_balance"`
	Sale            *models.Sale         `json:"sale,omitempty"`
	Transaction     *models.Transaction  `json:"transaction"`
	Certificates    []models.Certificate `json:"certificates"`
}

type service struct {
	tx       txRunner
	accounts wallet.Repository
	lots     lots.Repository
	ledger   transactions.Repository
	sales    Repository
	minter   certificateMinter
	balances balanceInvalidator
	metrics  *metrics.LedgerMetrics
}

// NewService builds a trading service with the required dependencies. The
// balance invalidator and metrics may be nil.
func NewService(
	tx txRunner,
	accounts wallet.Repository,
	lotsRepo lots.Repository,
	ledger transactions.Repository,
	sales Repository,
	minter certificateMinter,
	balances balanceInvalidator,
	ledgerMetrics *metrics.LedgerMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if lotsRepo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if minter == nil {
		return nil, fmt.Errorf("certificate minter required")
	}
	return &service{
		tx:       tx,
		accounts: accounts,
		lots:     lotsRepo,
		ledger:   ledger,
		sales:    sales,
		minter:   minter,
		balances: balances,
		metrics:  ledgerMetrics,
	}, nil
}

func (s *service) ExecuteTrade(ctx context.Context, input TradeInput) (*TradeResult, error) {
	start := time.Now()
	result, err := s.executeTrade(ctx, input)

	s.metrics.ObserveDuration(metrics.OpDirectTrade, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(metrics.OpDirectTrade)
		return nil, err
	}
	s.metrics.IncSuccess(metrics.OpDirectTrade)
	s.metrics.AddMinted(len(result.Certificates))

	if s.balances != nil {
		ids := []uuid.UUID{input.BuyerID}
		if input.SellerID != nil {
			ids = append(ids, *input.SellerID)
		}
		s.balances.InvalidateBalances(ctx, ids...)
	}
	return result, nil
}

// executeTrade runs the precondition checks in their contractual order, then
// applies every effect inside one transaction. The guarded updates re-check
// balance and stock, so a concurrent writer that won the row surfaces as the
// same typed error the precondition would have raised.
func (s *service) executeTrade(ctx context.Context, input TradeInput) (*TradeResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}

	total := input.Quantity.Mul(input.UnitPrice).Round(2)

	result := &TradeResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)
		lotsRepo := s.lots.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		sales := s.sales.WithTx(tx)

		buyer, err := accounts.FindAccount(ctx, input.BuyerID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeAccountNotFound, "buyer account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
		}
		if buyer.Balance.LessThan(total) {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "buyer balance below trade total")
		}

		lot, err := lotsRepo.FindByID(ctx, input.LotID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
		}
		if lot.Status != enums.LotStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("lot is %s, not active", lot.Status))
		}
		if lot.QuantityAvailable.LessThan(input.Quantity) {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "lot stock below requested quantity")
		}

		if err := accounts.DebitBalance(ctx, buyer.ID, total); err != nil {
			return err
		}
		if err := lotsRepo.DecrementAvailable(ctx, lot.ID, input.Quantity, true); err != nil {
			return err
		}

		var saleID *uuid.UUID
		txType := enums.TransactionTypePoolPurchase
		if input.SellerID != nil {
			if err := accounts.CreditBalance(ctx, *input.SellerID, total); err != nil {
				return err
			}

			sale := &models.Sale{
				LotID:      lot.ID,
				BuyerID:    buyer.ID,
				SellerID:   *input.SellerID,
				Quantity:   input.Quantity,
				TotalValue: total,
			}
			if err := sales.CreateSale(ctx, sale); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
			}
			result.Sale = sale
			saleID = &sale.ID
			txType = enums.TransactionTypeBuy
		}

		entry, err := transactions.Build(transactions.RecordInput{
			AccountID: buyer.ID,
			Type:      txType,
			Reference: lot.Name,
			Amount:    input.Quantity,
			Price:     input.UnitPrice,
			Total:     total,
		})
		if err != nil {
			return err
		}
		if err := ledger.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
		}
		result.Transaction = entry

		wholeTons := int(input.Quantity.Floor().IntPart())
		minted, err := s.minter.Mint(ctx, tx, lot, buyer.ID, saleID, wholeTons)
		if err != nil {
			return err
		}
		result.Certificates = minted

		result.NewBuyerBalance = buyer.Balance.Sub(total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListSales(ctx context.Context, accountID uuid.UUID, role SaleRole, params pagination.Params) (*SaleList, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	list, err := s.sales.ListByAccount(ctx, accountID, role, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return list, nil
}
