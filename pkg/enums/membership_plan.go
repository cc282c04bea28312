package enums

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MembershipPlan maps to the membership_plan_enum enum in Postgres.
type MembershipPlan string

const (
	MembershipPlanBasic      MembershipPlan = "basic"
	MembershipPlanPremium    MembershipPlan = "premium"
	MembershipPlanEnterprise MembershipPlan = "enterprise"
)

var validMembershipPlans = []MembershipPlan{
	MembershipPlanBasic,
	MembershipPlanPremium,
	MembershipPlanEnterprise,
}

var membershipFees = map[MembershipPlan]decimal.Decimal{
	MembershipPlanBasic:      decimal.NewFromInt(300),
	MembershipPlanPremium:    decimal.NewFromInt(800),
	MembershipPlanEnterprise: decimal.NewFromInt(2000),
}

// IsValid reports whether the value matches the canonical membership plan enum.
func (p MembershipPlan) IsValid() bool {
	for _, candidate := range validMembershipPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// Fee returns the one-time joining fee charged for the plan.
func (p MembershipPlan) Fee() decimal.Decimal {
	if fee, ok := membershipFees[p]; ok {
		return fee
	}
	return membershipFees[MembershipPlanBasic]
}

// ParseMembershipPlan converts raw input into MembershipPlan.
func ParseMembershipPlan(value string) (MembershipPlan, error) {
	for _, candidate := range validMembershipPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership plan %q", value)
}
