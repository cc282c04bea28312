package certificates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

// CertificateList wraps a page of certificates plus the next page cursor.
type CertificateList struct {
	Certificates []models.Certificate `json:"certificates"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

// Repository manages persistence for minted certificates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySerial(ctx context.Context, serial string) (*models.Certificate, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*CertificateList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a certificate repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySerial(ctx context.Context, serial string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.db.WithContext(ctx).Where("serial = ?", serial).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*CertificateList, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var certs []models.Certificate
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1).Find(&certs).Error; err != nil {
		return nil, err
	}

	list := &CertificateList{Certificates: certs}
	if len(certs) > pageSize {
		list.Certificates = certs[:pageSize]
		last := list.Certificates[len(list.Certificates)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}
