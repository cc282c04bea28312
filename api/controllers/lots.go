package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/api/validators"
	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type lotCreateRequest struct {
	OwnerID        string          `json:"owner_id" validate:"required,uuid"`
	Name           string          `json:"name" validate:"required,min=1"`
	Type           string          `json:"type" validate:"required,min=1"`
	Description    *string         `json:"description,omitempty"`
	CertifyingBody string          `json:"certifying_body,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// LotCreate registers a producer's lot in the marketplace.
func LotCreate(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		var payload lotCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ownerID, err := uuid.Parse(payload.OwnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
			return
		}

		lot, err := svc.Create(r.Context(), lots.CreateInput{
			OwnerID:        ownerID,
			Name:           payload.Name,
			Type:           payload.Type,
			Description:    payload.Description,
			CertifyingBody: payload.CertifyingBody,
			UnitPrice:      payload.UnitPrice,
			Quantity:       payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, lot)
	}
}

// LotGet returns one lot by id.
func LotGet(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "lotID"), "lot id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, lot)
	}
}

// LotList pages through lots, optionally filtered by owner and status.
func LotList(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := lots.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("owner_id")); raw != "" {
			ownerID, err := validators.ParsePathUUID(raw, "owner id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filters.OwnerID = &ownerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseLotStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// LotDelete removes a lot, or archives it when sales reference it.
func LotDelete(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lots service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "lotID"), "lot id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
