package enums

import "fmt"

// ContributionStatus maps to the contribution_status_enum enum in Postgres.
// The sum of quantities over in_pool contributions always equals the pool total.
type ContributionStatus string

const (
	ContributionStatusInPool ContributionStatus = "in_pool"
	ContributionStatusSold   ContributionStatus = "sold"
)

var validContributionStatuses = []ContributionStatus{
	ContributionStatusInPool,
	ContributionStatusSold,
}

// IsValid reports whether the value matches the canonical contribution status enum.
func (s ContributionStatus) IsValid() bool {
	for _, candidate := range validContributionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseContributionStatus converts raw input into ContributionStatus.
func ParseContributionStatus(value string) (ContributionStatus, error) {
	for _, candidate := range validContributionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contribution status %q", value)
}
