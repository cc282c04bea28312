package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CooperativePool is the singleton aggregate that tracks pooled volume and the
// cooperative's own fund. TotalPooledQty must always equal the sum of in-pool
// contribution quantities; every write that touches either side runs in one
// transaction.
type CooperativePool struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	TotalPooledQty    decimal.Decimal `gorm:"column:total_pooled_qty;type:numeric(18,3);not null"`
	FundBalance       decimal.Decimal `gorm:"column:fund_balance;type:numeric(18,2);not null"`
	CommissionPercent decimal.Decimal `gorm:"column:commission_percent;type:numeric(5,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *CooperativePool) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
