package enums

import "fmt"

// LotStatus maps to the lot_status_enum enum in Postgres.
type LotStatus string

const (
	LotStatusActive   LotStatus = "active"
	LotStatusPaused   LotStatus = "paused"
	LotStatusArchived LotStatus = "archived"
	LotStatusDraft    LotStatus = "draft"
)

var validLotStatuses = []LotStatus{
	LotStatusActive,
	LotStatusPaused,
	LotStatusArchived,
	LotStatusDraft,
}

// IsValid reports whether the value matches the canonical lot status enum.
func (s LotStatus) IsValid() bool {
	for _, candidate := range validLotStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLotStatus converts raw input into LotStatus.
func ParseLotStatus(value string) (LotStatus, error) {
	for _, candidate := range validLotStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lot status %q", value)
}
