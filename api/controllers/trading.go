package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/api/validators"
	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/trading"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type tradeRequest struct {
	BuyerID   string          `json:"buyer_id" validate:"required,uuid"`
	LotID     string          `json:"lot_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// TradeExecute runs a direct purchase from a lot. The seller is the lot's
// owner; the unit price defaults to the lot's listed price when omitted.
func TradeExecute(svc trading.Service, lotsSvc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || lotsSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trading service unavailable"))
			return
		}

		var payload tradeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID, err := uuid.Parse(payload.BuyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer id"))
			return
		}
		lotID, err := uuid.Parse(payload.LotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
			return
		}

		lot, err := lotsSvc.Get(r.Context(), lotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitPrice := payload.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = lot.UnitPrice
		}

		sellerID := lot.OwnerID
		result, err := svc.ExecuteTrade(r.Context(), trading.TradeInput{
			BuyerID:   buyerID,
			SellerID:  &sellerID,
			LotID:     lotID,
			Quantity:  payload.Quantity,
			UnitPrice: unitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PoolPurchase buys from a pooled lot with no individual counterparty: the
// trade debits the buyer and mints certificates, but nobody is credited and no
// sale record is written. Contributors get paid when the pool itself is sold.
func PoolPurchase(svc trading.Service, logg *logger.Logger) http.HandlerFunc {
	type request struct {
		BuyerID   string          `json:"buyer_id" validate:"required,uuid"`
		LotID     string          `json:"lot_id" validate:"required,uuid"`
		Quantity  decimal.Decimal `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trading service unavailable"))
			return
		}

		var payload request
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID, err := uuid.Parse(payload.BuyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer id"))
			return
		}
		lotID, err := uuid.Parse(payload.LotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lot id"))
			return
		}

		result, err := svc.ExecuteTrade(r.Context(), trading.TradeInput{
			BuyerID:   buyerID,
			SellerID:  nil,
			LotID:     lotID,
			Quantity:  payload.Quantity,
			UnitPrice: payload.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SalesList pages an account's sales, filtered by its side of the trade.
func SalesList(svc trading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "trading service unavailable"))
			return
		}

		accountID, err := validators.ParsePathUUID(r.URL.Query().Get("account_id"), "account id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := trading.SaleRole(r.URL.Query().Get("role"))
		switch role {
		case trading.SaleRoleAny, trading.SaleRoleBuyer, trading.SaleRoleSeller:
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListSales(r.Context(), accountID, role, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
