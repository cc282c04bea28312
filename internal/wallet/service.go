package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	redispkg "github.com/verdecoop/verdecoop-backend/pkg/redis"
)

// balanceCache is the slice of the Redis client the wallet needs. The cache is
// a disposable projection of the ledger; it is invalidated on every write and
// a cache failure never fails the caller.
type balanceCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	BalanceKey(accountID string) string
}

// Service exposes account and balance operations.
type Service interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) (*models.Account, error)
	InvalidateBalances(ctx context.Context, accountIDs ...uuid.UUID)
}

// CreateAccountInput carries the fields needed to open an account.
type CreateAccountInput struct {
	Name           string
	Email          string
	InitialBalance decimal.Decimal
}

type service struct {
	repo  Repository
	cache balanceCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService wires a wallet service. The cache may be nil; every read then
// goes straight to the store.
func NewService(repo Repository, cache balanceCache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.InitialBalance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial balance cannot be negative")
	}

	account := &models.Account{
		Name:    name,
		Email:   email,
		Balance: input.InitialBalance,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	account, err := s.repo.FindAccount(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

// GetBalance reads through the cache. The ledger store is the source of
// truth; a cached value only ever shortcuts the read path.
func (s *service) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if id == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	if s.cache != nil {
		key := s.cache.BalanceKey(id.String())
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			if cached, parseErr := decimal.NewFromString(raw); parseErr == nil {
				return cached, nil
			}
		} else if !redispkg.IsMiss(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "balance cache read failed")
		}
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	if s.cache != nil {
		key := s.cache.BalanceKey(id.String())
		if err := s.cache.Set(ctx, key, account.Balance.String(), s.ttl); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "balance cache write failed")
		}
	}
	return account.Balance, nil
}

func (s *service) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) (*models.Account, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if balance.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "balance cannot be negative")
	}

	if err := s.repo.SetBalance(ctx, id, balance); err != nil {
		return nil, err
	}
	s.InvalidateBalances(ctx, id)
	return s.GetAccount(ctx, id)
}

// InvalidateBalances drops cached balances after a ledger write. Failures are
// logged and swallowed; the entry expires on its own TTL.
func (s *service) InvalidateBalances(ctx context.Context, accountIDs ...uuid.UUID) {
	if s.cache == nil || len(accountIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id == uuid.Nil {
			continue
		}
		keys = append(keys, s.cache.BalanceKey(id.String()))
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "balance cache invalidation failed")
	}
}
