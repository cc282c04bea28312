package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// Transaction is the buyer-side ledger entry written for every trade, whether
// or not a counterparty seller exists (pool purchases have none).
type Transaction struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	AccountID uuid.UUID               `gorm:"column:account_id;type:uuid;not null;index"`
	Type      enums.TransactionType   `gorm:"column:type;type:transaction_type_enum;not null"`
	Reference string                  `gorm:"column:reference;not null;default:'—'"`
	Amount    decimal.Decimal         `gorm:"column:amount;type:numeric(18,3);not null"`
	Price     decimal.Decimal         `gorm:"column:price;type:numeric(18,2);not null"`
	Total     decimal.Decimal         `gorm:"column:total;type:numeric(18,2);not null"`
	Status    enums.TransactionStatus `gorm:"column:status;type:transaction_status_enum;not null;default:'paid'"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
