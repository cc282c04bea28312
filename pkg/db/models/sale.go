package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is the immutable record of one direct trade between a buyer and a
// seller. It is created atomically with the balance changes it represents.
type Sale struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	LotID      uuid.UUID       `gorm:"column:lot_id;type:uuid;not null;index"`
	BuyerID    uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID   uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(18,3);not null"`
	TotalValue decimal.Decimal `gorm:"column:total_value;type:numeric(18,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
