package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/api/responses"
	"github.com/verdecoop/verdecoop-backend/api/validators"
	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/logger"
)

type accountCreateRequest struct {
	Name           string          `json:"name" validate:"required,min=1"`
	Email          string          `json:"email" validate:"required,email"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AccountCreate opens a new account, optionally with a starting balance.
func AccountCreate(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		var payload accountCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.CreateAccount(r.Context(), wallet.CreateAccountInput{
			Name:           payload.Name,
			Email:          payload.Email,
			InitialBalance: payload.InitialBalance,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, account)
	}
}

// AccountGet returns the account row, balance included.
func AccountGet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "accountID"), "account id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetAccount(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}

// AccountBalance returns the current balance, served from the cache when warm.
func AccountBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "accountID"), "account id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]decimal.Decimal{"balance": balance})
	}
}

type balanceSetRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// AccountBalanceSet overwrites the balance. Administrative top-up endpoint;
// balance changes from trades only ever go through the trading service.
func AccountBalanceSet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "accountID"), "account id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload balanceSetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.SetBalance(r.Context(), id, payload.Balance)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}
