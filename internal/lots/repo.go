package lots

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

// ListFilters describe the inputs supported by the lot list.
type ListFilters struct {
	OwnerID *uuid.UUID
	Status  *enums.LotStatus
}

// LotList wraps a page of lots plus the next page cursor.
type LotList struct {
	Lots       []models.Lot `json:"lots"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Repository manages persistence for credit lots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.Lot) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*LotList, error)
	DecrementAvailable(ctx context.Context, id uuid.UUID, qty decimal.Decimal, recordSold bool) error
	Archive(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasSales(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a lot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.Lot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lot, error) {
	var lot models.Lot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lot).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*LotList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Lot{})
	if filters.OwnerID != nil {
		qb = qb.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var lots []models.Lot
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&lots).Error; err != nil {
		return nil, err
	}

	list := &LotList{Lots: lots}
	if len(lots) > pageSize {
		list.Lots = lots[:pageSize]
		last := list.Lots[len(list.Lots)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

// DecrementAvailable takes qty from an active lot's available stock, failing
// with INSUFFICIENT_STOCK when the guarded update matches no row. recordSold
// moves the quantity into quantity_sold (direct trades) instead of just
// removing it (pool contributions).
func (r *repository) DecrementAvailable(ctx context.Context, id uuid.UUID, qty decimal.Decimal, recordSold bool) error {
	sold := "quantity_sold"
	if recordSold {
		sold = "quantity_sold + ?"
	}

	query := `
		UPDATE lots
		SET quantity_available = quantity_available - ?,
			quantity_sold = ` + sold + `,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND quantity_available >= ?
	`

	args := []any{qty}
	if recordSold {
		args = append(args, qty)
	}
	args = append(args, id, enums.LotStatusActive, qty)

	res := r.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement lot stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "lot stock below requested quantity")
	}
	return nil
}

func (r *repository) Archive(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Lot{}).
		Where("id = ?", id).
		Update("status", enums.LotStatusArchived)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "archive lot")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Lot{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete lot")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found")
	}
	return nil
}

func (r *repository) HasSales(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("lot_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count lot sales")
	}
	return count > 0, nil
}
