package lots

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountFinder interface {
	FindAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Service defines lot lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Lot, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*LotList, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
}

// CreateInput carries the fields needed to register a lot.
type CreateInput struct {
	OwnerID        uuid.UUID
	Name           string
	Type           string
	Description    *string
	CertifyingBody string
	UnitPrice      decimal.Decimal
	Quantity       decimal.Decimal
}

// DeleteResult reports whether the lot was removed or only archived.
type DeleteResult struct {
	Archived bool `json:"archived"`
}

type service struct {
	repo     Repository
	accounts accountFinder
	tx       txRunner
}

// NewService wires a lot service with the required dependencies.
func NewService(repo Repository, accounts accountFinder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lots repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, accounts: accounts, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Lot, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	lotType := strings.TrimSpace(input.Type)
	if lotType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity cannot be negative")
	}

	if _, err := s.accounts.FindAccount(ctx, input.OwnerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeAccountNotFound, "owner account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner account")
	}

	certifyingBody := strings.TrimSpace(input.CertifyingBody)
	if certifyingBody == "" {
		certifyingBody = "Verra VCS"
	}

	lot := &models.Lot{
		OwnerID:           input.OwnerID,
		Name:              name,
		Type:              lotType,
		Description:       input.Description,
		CertifyingBody:    certifyingBody,
		UnitPrice:         input.UnitPrice,
		QuantityAvailable: input.Quantity,
		QuantitySold:      decimal.Zero,
		Status:            enums.LotStatusActive,
	}
	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lot")
	}
	return lot, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}
	lot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
	}
	return lot, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*LotList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lots")
	}
	return list, nil
}

// Delete removes a lot, unless it is referenced by a sale; the lot is then
// archived so sale history keeps a valid reference.
func (s *service) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id required")
	}

	result := &DeleteResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lot")
		}

		referenced, err := repo.HasSales(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			result.Archived = true
			return repo.Archive(ctx, id)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
