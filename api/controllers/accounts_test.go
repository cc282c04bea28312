package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/internal/wallet"
	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
)

type stubWalletService struct {
	account *models.Account
	balance decimal.Decimal
	err     error
}

func (s stubWalletService) CreateAccount(context.Context, wallet.CreateAccountInput) (*models.Account, error) {
	return s.account, s.err
}

func (s stubWalletService) GetAccount(context.Context, uuid.UUID) (*models.Account, error) {
	return s.account, s.err
}

func (s stubWalletService) GetBalance(context.Context, uuid.UUID) (decimal.Decimal, error) {
	return s.balance, s.err
}

func (s stubWalletService) SetBalance(context.Context, uuid.UUID, decimal.Decimal) (*models.Account, error) {
	return s.account, s.err
}

func (s stubWalletService) InvalidateBalances(context.Context, ...uuid.UUID) {}

func TestAccountCreateSuccess(t *testing.T) {
	account := &models.Account{
		ID:      uuid.New(),
		Name:    "Produtor",
		Email:   "produtor@verdecoop.test",
		Balance: decimal.RequireFromString("100.00"),
	}
	handler := AccountCreate(stubWalletService{account: account}, nil)

	body, _ := json.Marshal(map[string]any{
		"name":            "Produtor",
		"email":           "produtor@verdecoop.test",
		"initial_balance": "100.00",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.Account `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != account.ID {
		t.Fatalf("expected id %s got %s", account.ID, envelope.Data.ID)
	}
}

func TestAccountCreateRejectsBadEmail(t *testing.T) {
	handler := AccountCreate(stubWalletService{}, nil)

	body, _ := json.Marshal(map[string]any{"name": "Produtor", "email": "not-an-email"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAccountBalanceSuccess(t *testing.T) {
	handler := AccountBalance(stubWalletService{balance: decimal.RequireFromString("42.50")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/x/balance", nil)
	req = withURLParam(req, "accountID", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data map[string]decimal.Decimal `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data["balance"].Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("expected balance 42.50 got %s", envelope.Data["balance"])
	}
}

func TestAccountBalanceUnknownAccount(t *testing.T) {
	handler := AccountBalance(stubWalletService{
		err: pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found"),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/x/balance", nil)
	req = withURLParam(req, "accountID", uuid.NewString())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAccountBalanceInvalidID(t *testing.T) {
	handler := AccountBalance(stubWalletService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/nope/balance", nil)
	req = withURLParam(req, "accountID", "nope")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
