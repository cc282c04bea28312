package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

// Repository manages persistence for accounts and their balances. Balance
// writes are guarded raw updates so a stale in-memory read can never drive a
// balance below zero.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an account repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitBalance subtracts amount from the account, failing with
// INSUFFICIENT_FUNDS when the guarded update matches no row. Callers check
// account existence first, so a zero row count means the balance was too low.
func (r *repository) DebitBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE accounts
		SET balance = balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND balance >= ?
	`, amount, id, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "debit balance")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance below requested debit")
	}
	return nil
}

// CreditBalance adds amount to the account; a zero row count means the
// account does not exist.
func (r *repository) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE accounts
		SET balance = balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit balance")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found")
	}
	return nil
}

func (r *repository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE accounts
		SET balance = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, balance, id)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set balance")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found")
	}
	return nil
}
