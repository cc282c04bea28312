package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// FundMovement is the cooperative's append-only history of pool and fund
// activity (unifications, membership fees, sale commissions).
type FundMovement struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	PoolID      uuid.UUID              `gorm:"column:pool_id;type:uuid;not null;index"`
	AccountID   *uuid.UUID             `gorm:"column:account_id;type:uuid;index"`
	Type        enums.FundMovementType `gorm:"column:type;type:fund_movement_type_enum;not null"`
	Description string                 `gorm:"column:description;not null"`
	Value       decimal.Decimal        `gorm:"column:value;type:numeric(18,2);not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (m *FundMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
