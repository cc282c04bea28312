package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdecoop/verdecoop-backend/pkg/enums"
)

// Certificate records ownership of exactly one whole ton of CO2e. The serial
// is the one bit-exact external contract:
// "{country}-{standard}-{projectId}-{year}-{sequence:08d}".
// Immutable once minted except for Status and OwnerID (explicit transfer).
type Certificate struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Serial    string                  `gorm:"column:serial;uniqueIndex:certificates_serial_key;not null"`
	Country   string                  `gorm:"column:country;not null"`
	Standard  string                  `gorm:"column:standard;not null"`
	ProjectID string                  `gorm:"column:project_id;not null"`
	Year      int                     `gorm:"column:year;not null"`
	Sequence  int64                   `gorm:"column:sequence;not null"`
	Status    enums.CertificateStatus `gorm:"column:status;type:certificate_status_enum;not null;default:'available'"`
	OwnerID   uuid.UUID               `gorm:"column:owner_id;type:uuid;not null;index"`
	LotID     uuid.UUID               `gorm:"column:lot_id;type:uuid;not null"`
	SaleID    *uuid.UUID              `gorm:"column:sale_id;type:uuid"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CertificateCounter serializes serial issuance per (country, standard,
// project, year) scope. The guarded increment takes the row lock that makes
// concurrent mints in one scope queue up instead of colliding.
type CertificateCounter struct {
	Country   string    `gorm:"column:country;primaryKey"`
	Standard  string    `gorm:"column:standard;primaryKey"`
	ProjectID string    `gorm:"column:project_id;primaryKey"`
	Year      int       `gorm:"column:year;primaryKey"`
	LastSeq   int64     `gorm:"column:last_seq;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
