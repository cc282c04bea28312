package coop

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

// shareTolerance bounds the drift allowed when the per-contributor shares are
// summed back up; anything beyond it means the inputs were inconsistent.
var shareTolerance = decimal.New(1, -9)

// Payout is one contributor's cut of a collective sale.
type Payout struct {
	ContributionID uuid.UUID       `json:"contribution_id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Share          decimal.Decimal `json:"share"`
	Amount         decimal.Decimal `json:"amount"`
}

// DistributionPlan is the fully computed outcome of selling the pool at one
// unit price. It is pure data; applying it is the transactional step.
type DistributionPlan struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`
	Commission    decimal.Decimal `json:"commission"`
	Distributable decimal.Decimal `json:"distributable"`
	Residual      decimal.Decimal `json:"residual"`
	FundTotal     decimal.Decimal `json:"fund_total"`
	Payouts       []Payout        `json:"payouts"`
}

// BuildDistribution computes the proportional split of a pool sale. Payouts
// round half-even to the cent; the signed rounding residual goes to the
// cooperative fund together with the commission, so the plan always conserves
// the gross revenue exactly.
func BuildDistribution(contributions []models.Contribution, unitPrice, commissionPercent decimal.Decimal) (*DistributionPlan, error) {
	if !unitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if commissionPercent.IsNegative() || commissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission percent out of range")
	}
	if len(contributions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pool has no contributions to sell")
	}

	total := decimal.Zero
	for _, c := range contributions {
		if !c.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "contribution quantity must be positive")
		}
		total = total.Add(c.Quantity)
	}

	gross := total.Mul(unitPrice).RoundBank(2)
	commission := gross.Mul(commissionPercent).Div(decimal.NewFromInt(100)).RoundBank(2)
	distributable := gross.Sub(commission)

	payouts := make([]Payout, 0, len(contributions))
	shareSum := decimal.Zero
	paidOut := decimal.Zero
	for _, c := range contributions {
		share := c.Quantity.Div(total)
		amount := distributable.Mul(share).RoundBank(2)

		shareSum = shareSum.Add(share)
		paidOut = paidOut.Add(amount)
		payouts = append(payouts, Payout{
			ContributionID: c.ID,
			AccountID:      c.AccountID,
			Quantity:       c.Quantity,
			Share:          share,
			Amount:         amount,
		})
	}

	if shareSum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(shareTolerance) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "distribution shares do not sum to one")
	}

	residual := distributable.Sub(paidOut)

	return &DistributionPlan{
		TotalQuantity: total,
		UnitPrice:     unitPrice,
		GrossRevenue:  gross,
		Commission:    commission,
		Distributable: distributable,
		Residual:      residual,
		FundTotal:     commission.Add(residual),
		Payouts:       payouts,
	}, nil
}
