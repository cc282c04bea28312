package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

// Service defines read operations over ledger entries. Writes happen inside
// trade and pool transactions via Build plus a tx-bound repository.
type Service interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*TransactionList, error)
}

// RecordInput captures the immutable data a ledger entry requires.
type RecordInput struct {
	AccountID uuid.UUID
	Type      enums.TransactionType
	Reference string
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Total     decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires a transaction service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	list, err := s.repo.ListByAccount(ctx, accountID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return list, nil
}

// Build validates the input and shapes the ledger entry without persisting
// it; transactional writers persist the result through their own tx-bound
// repository.
func Build(input RecordInput) (*models.Transaction, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "amount must be positive")
	}

	reference := input.Reference
	if reference == "" {
		reference = "—"
	}

	return &models.Transaction{
		AccountID: input.AccountID,
		Type:      input.Type,
		Reference: reference,
		Amount:    input.Amount,
		Price:     input.Price,
		Total:     input.Total,
		Status:    enums.TransactionStatusPaid,
	}, nil
}
