package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// Contribution links a producer and a source lot to the cooperative pool,
// recording the provenance and size of volume sitting in the pool.
type Contribution struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	PoolID    uuid.UUID                `gorm:"column:pool_id;type:uuid;not null;index"`
	AccountID uuid.UUID                `gorm:"column:account_id;type:uuid;not null;index"`
	LotID     uuid.UUID                `gorm:"column:lot_id;type:uuid;not null"`
	Quantity  decimal.Decimal          `gorm:"column:quantity;type:numeric(18,3);not null"`
	Status    enums.ContributionStatus `gorm:"column:status;type:contribution_status_enum;not null;default:'in_pool'"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Contribution) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
