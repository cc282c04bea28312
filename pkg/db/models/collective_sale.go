package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// CollectiveSale is the immutable record of one sale of the entire pool,
// created together with the distribution that zeroes the pool.
type CollectiveSale struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	PoolID        uuid.UUID                  `gorm:"column:pool_id;type:uuid;not null;index"`
	TotalQuantity decimal.Decimal            `gorm:"column:total_quantity;type:numeric(18,3);not null"`
	UnitPrice     decimal.Decimal            `gorm:"column:unit_price;type:numeric(18,2);not null"`
	GrossRevenue  decimal.Decimal            `gorm:"column:gross_revenue;type:numeric(18,2);not null"`
	Commission    decimal.Decimal            `gorm:"column:commission;type:numeric(18,2);not null"`
	Status        enums.CollectiveSaleStatus `gorm:"column:status;type:collective_sale_status_enum;not null;default:'completed'"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (s *CollectiveSale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
