package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/api/validators"
	"github.com/verdecoop/verdecoop-backend/internal/coop"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
)

type contributeRequest struct {
	ProducerID string          `json:"producer_id" validate:"required,uuid"`
	LotID      string          `json:"lot_id" validate:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// CoopContribute moves volume from a producer's lot into the shared pool.
func CoopContribute(svc coop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cooperative service unavailable"))
			return
		}

		var payload contributeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		producerID, err := uuid.Parse(payload.ProducerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid producer id"))
			return
		}
		lotID, err := uuid.Parse(payload.LotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
			return
		}

		contribution, err := svc.Contribute(r.Context(), producerID, lotID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, contribution)
	}
}

type poolSellRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CoopSellPool sells the entire pool at the given unit price and distributes
// the proceeds to contributors.
func CoopSellPool(svc coop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cooperative service unavailable"))
			return
		}

		var payload poolSellRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SellPool(r.Context(), payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type joinRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
	Plan      string `json:"plan" validate:"required,oneof=basic premium enterprise"`
}

// CoopJoin registers an account as a cooperative member, charging the plan fee.
func CoopJoin(svc coop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cooperative service unavailable"))
			return
		}

		var payload joinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID, err := uuid.Parse(payload.AccountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id"))
			return
		}
		plan, err := enums.ParseMembershipPlan(payload.Plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan"))
			return
		}

		membership, err := svc.JoinCooperative(r.Context(), accountID, plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, membership)
	}
}

// CoopOverview returns the pool state with recent activity.
func CoopOverview(svc coop.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cooperative service unavailable"))
			return
		}

		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}
