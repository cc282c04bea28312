package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// Membership records an account's paid affiliation with the cooperative.
type Membership struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	AccountID uuid.UUID            `gorm:"column:account_id;type:uuid;uniqueIndex:memberships_account_id_key;not null"`
	PoolID    uuid.UUID            `gorm:"column:pool_id;type:uuid;not null;index"`
	Plan      enums.MembershipPlan `gorm:"column:plan;type:membership_plan_enum;not null"`
	FeePaid   bool                 `gorm:"column:fee_paid;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
