package enums

import "fmt"

// CollectiveSaleStatus maps to the collective_sale_status_enum enum in Postgres.
type CollectiveSaleStatus string

const (
	CollectiveSaleStatusCompleted CollectiveSaleStatus = "completed"
)

var validCollectiveSaleStatuses = []CollectiveSaleStatus{
	CollectiveSaleStatusCompleted,
}

// IsValid reports whether the value matches the canonical collective sale status enum.
func (s CollectiveSaleStatus) IsValid() bool {
	for _, candidate := range validCollectiveSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCollectiveSaleStatus converts raw input into CollectiveSaleStatus.
func ParseCollectiveSaleStatus(value string) (CollectiveSaleStatus, error) {
	for _, candidate := range validCollectiveSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collective sale status %q", value)
}
