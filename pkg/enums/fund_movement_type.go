package enums

import "fmt"

// FundMovementType maps to the fund_movement_type_enum enum in Postgres.
type FundMovementType string

const (
	// FundMovementTypeUnification records volume moved from an individual lot
	// into the shared pool. The monetary value of such a movement is zero.
	FundMovementTypeUnification   FundMovementType = "unification"
	FundMovementTypeMembershipFee FundMovementType = "membership_fee"
	FundMovementTypeCommission    FundMovementType = "commission"
	FundMovementTypeAdjustment    FundMovementType = "adjustment"
)

var validFundMovementTypes = []FundMovementType{
	FundMovementTypeUnification,
	FundMovementTypeMembershipFee,
	FundMovementTypeCommission,
	FundMovementTypeAdjustment,
}

// IsValid reports whether the value matches the canonical fund movement type enum.
func (t FundMovementType) IsValid() bool {
	for _, candidate := range validFundMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseFundMovementType converts raw input into FundMovementType.
func ParseFundMovementType(value string) (FundMovementType, error) {
	for _, candidate := range validFundMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fund movement type %q", value)
}
