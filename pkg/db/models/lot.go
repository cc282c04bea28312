package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// Lot is a producer's sellable batch of carbon credits. QuantityAvailable only
// decreases through a direct trade or a pool contribution; a lot referenced by
// any sale is archived instead of deleted.
type Lot struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID           uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	Name              string          `gorm:"column:name;not null"`
	Type              string          `gorm:"column:type;not null"`
	Description       *string         `gorm:"column:description"`
	CertifyingBody    string          `gorm:"column:certifying_body;not null;default:'Verra VCS'"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null"`
	QuantityAvailable decimal.Decimal `gorm:"column:quantity_available;type:numeric(18,3);not null"`
	QuantitySold      decimal.Decimal `gorm:"column:quantity_sold;type:numeric(18,3);not null"`
	Status            enums.LotStatus `gorm:"column:status;type:lot_status_enum;not null;default:'active'"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Lot) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
