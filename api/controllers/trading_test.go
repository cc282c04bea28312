package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/verdecoop/verdecoop-backend/internal/lots"
	"github.com/verdecoop/verdecoop-backend/internal/trading"
	"github.com/verdecoop/verdecoop-backend/pkg/db/models"
	"github.com/verdecoop/verdecoop-backend/pkg/enums"
	pkgerrors "github.com/verdecoop/verdecoop-backend/pkg/errors"
	"github.com/verdecoop/verdecoop-backend/pkg/pagination"
)

type stubTradingService struct {
	result    *trading.TradeResult
	err       error
	lastInput trading.TradeInput
}

func (s *stubTradingService) ExecuteTrade(_ context.Context, input trading.TradeInput) (*trading.TradeResult, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubTradingService) ListSales(context.Context, uuid.UUID, trading.SaleRole, pagination.Params) (*trading.SaleList, error) {
	return &trading.SaleList{}, s.err
}

type stubLotsService struct {
	lot *models.Lot
	err error
}

func (s stubLotsService) Create(context.Context, lots.CreateInput) (*models.Lot, error) {
	return s.lot, s.err
}

func (s stubLotsService) Get(context.Context, uuid.UUID) (*models.Lot, error) {
	return s.lot, s.err
}

func (s stubLotsService) List(context.Context, pagination.Params, lots.ListFilters) (*lots.LotList, error) {
	return &lots.LotList{}, s.err
}

func (s stubLotsService) Delete(context.Context, uuid.UUID) (*lots.DeleteResult, error) {
	return &lots.DeleteResult{}, s.err
}

func TestTradeExecuteDerivesSellerFromLot(t *testing.T) {
	owner := uuid.New()
	lot := &models.Lot{
		ID:        uuid.New(),
		OwnerID:   owner,
		Name:      "Lote Pantanal",
		UnitPrice: decimal.RequireFromString("25.00"),
		Status:    enums.LotStatusActive,
	}
	svc := &stubTradingService{result: &trading.TradeResult{NewBuyerBalance: decimal.RequireFromString("10.00")}}
	handler := TradeExecute(svc, stubLotsService{lot: lot}, nil)

	body, _ := json.Marshal(map[string]any{
		"buyer_id": uuid.NewString(),
		"lot_id":   lot.ID.String(),
		"quantity": "2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.SellerID == nil || *svc.lastInput.SellerID != owner {
		t.Fatalf("expected seller %s got %v", owner, svc.lastInput.SellerID)
	}
	if !svc.lastInput.UnitPrice.Equal(lot.UnitPrice) {
		t.Fatalf("expected lot price %s got %s", lot.UnitPrice, svc.lastInput.UnitPrice)
	}
}

func TestTradeExecuteUnknownLot(t *testing.T) {
	handler := TradeExecute(&stubTradingService{}, stubLotsService{
		err: pkgerrors.New(pkgerrors.CodeLotNotFound, "lot not found"),
	}, nil)

	body, _ := json.Marshal(map[string]any{
		"buyer_id": uuid.NewString(),
		"lot_id":   uuid.NewString(),
		"quantity": "2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeLotNotFound) {
		t.Fatalf("expected LOT_NOT_FOUND got %s", envelope.Error.Code)
	}
}

func TestTradeExecuteInsufficientFunds(t *testing.T) {
	lot := &models.Lot{ID: uuid.New(), OwnerID: uuid.New(), UnitPrice: decimal.RequireFromString("25.00")}
	svc := &stubTradingService{err: pkgerrors.New(pkgerrors.CodeInsufficientFunds, "buyer balance below trade total")}
	handler := TradeExecute(svc, stubLotsService{lot: lot}, nil)

	body, _ := json.Marshal(map[string]any{
		"buyer_id": uuid.NewString(),
		"lot_id":   lot.ID.String(),
		"quantity": "2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trades", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestPoolPurchaseSendsNoSeller(t *testing.T) {
	svc := &stubTradingService{result: &trading.TradeResult{}}
	handler := PoolPurchase(svc, nil)

	body, _ := json.Marshal(map[string]any{
		"buyer_id":   uuid.NewString(),
		"lot_id":     uuid.NewString(),
		"quantity":   "3",
		"unit_price": "10.00",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pool/purchases", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.SellerID != nil {
		t.Fatalf("expected no seller, got %v", svc.lastInput.SellerID)
	}
}

func TestSalesListRejectsUnknownRole(t *testing.T) {
	handler := SalesList(&stubTradingService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales?account_id="+uuid.NewString()+"&role=broker", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
