package trading

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

// SaleRole filters the sale list by the account's side of the trade.
type SaleRole string

const (
	SaleRoleAny    SaleRole = ""
	SaleRoleBuyer  SaleRole = "buyer"
	SaleRoleSeller SaleRole = "seller"
)

// SaleList wraps a page of sales plus the next page cursor.
type SaleList struct {
	Sales      []models.Sale `json:"sales"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Repository manages persistence for direct-trade sale records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSale(ctx context.Context, sale *models.Sale) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, role SaleRole, params pagination.Params) (*SaleList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sale repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, role SaleRole, params pagination.Params) (*SaleList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Sale{})
	switch role {
	case SaleRoleBuyer:
		qb = qb.Where("buyer_id = ?", accountID)
	case SaleRoleSeller:
		qb = qb.Where("seller_id = ?", accountID)
	case SaleRoleAny:
		qb = qb.Where("buyer_id = ? OR seller_id = ?", accountID, accountID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var sales []models.Sale
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&sales).Error; err != nil {
		return nil, err
	}

	list := &SaleList{Sales: sales}
	if len(sales) > pageSize {
		list.Sales = sales[:pageSize]
		last := list.Sales[len(list.Sales)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}
