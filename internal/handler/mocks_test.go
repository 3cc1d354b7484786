package handler

import (
	"context"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"square-payment-gateway/internal/cache"
	"square-payment-gateway/internal/client"
	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/repository"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type mockOAuthService struct {
	GenerateAuthorizeURLFunc func(ctx context.Context, storeID int) (string, error)
	HandleCallbackFunc       func(ctx context.Context, params service.CallbackParams) (int, error)
	RevokeFunc               func(ctx context.Context, storeID int) error
}

func (m *mockOAuthService) GenerateAuthorizeURL(ctx context.Context, storeID int) (string, error) {
	return m.GenerateAuthorizeURLFunc(ctx, storeID)
}

func (m *mockOAuthService) HandleCallback(ctx context.Context, params service.CallbackParams) (int, error) {
	return m.HandleCallbackFunc(ctx, params)
}

func (m *mockOAuthService) Renew(context.Context, int) (bool, error) {
	return false, nil
}

func (m *mockOAuthService) Revoke(ctx context.Context, storeID int) error {
	return m.RevokeFunc(ctx, storeID)
}

type mockPaymentService struct {
	ProcessPaymentFunc          func(ctx context.Context, intent *model.PaymentIntent, isRecurring bool) (*model.PaymentResult, error)
	ProcessRecurringPaymentFunc func(ctx context.Context, intent *model.PaymentIntent) (*model.PaymentResult, error)
	CaptureFunc                 func(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error)
	VoidFunc                    func(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error)
	RefundFunc                  func(ctx context.Context, req *model.RefundRequest) (*model.RefundResult, error)
	AdditionalFeeFunc           func(ctx context.Context, storeID int, subtotal decimal.Decimal) (decimal.Decimal, error)
	ListStoredCardsFunc         func(ctx context.Context, storeID int, customerID int64) ([]model.SquareCard, error)
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, intent *model.PaymentIntent, isRecurring bool) (*model.PaymentResult, error) {
	return m.ProcessPaymentFunc(ctx, intent, isRecurring)
}

func (m *mockPaymentService) ProcessRecurringPayment(ctx context.Context, intent *model.PaymentIntent) (*model.PaymentResult, error) {
	return m.ProcessRecurringPaymentFunc(ctx, intent)
}

func (m *mockPaymentService) Capture(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error) {
	return m.CaptureFunc(ctx, storeID, transactionID)
}

func (m *mockPaymentService) Void(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error) {
	return m.VoidFunc(ctx, storeID, transactionID)
}

func (m *mockPaymentService) Refund(ctx context.Context, req *model.RefundRequest) (*model.RefundResult, error) {
	return m.RefundFunc(ctx, req)
}

func (m *mockPaymentService) AdditionalFee(ctx context.Context, storeID int, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return m.AdditionalFeeFunc(ctx, storeID, subtotal)
}

func (m *mockPaymentService) ListStoredCards(ctx context.Context, storeID int, customerID int64) ([]model.SquareCard, error) {
	return m.ListStoredCardsFunc(ctx, storeID, customerID)
}

// mockSquareService only implements the calls the handlers make.
type mockSquareService struct {
	service.SquareService
	ListActiveLocationsFunc func(ctx context.Context, storeID int) ([]model.SquareLocation, error)
}

func (m *mockSquareService) ListActiveLocations(ctx context.Context, storeID int) ([]model.SquareLocation, error) {
	return m.ListActiveLocationsFunc(ctx, storeID)
}

type mockRenewalService struct {
	service.RenewalService
	period int
}

func (m *mockRenewalService) Period(context.Context) (int, error) {
	return m.period, nil
}

func (m *mockRenewalService) SetPeriod(_ context.Context, days int) error {
	if err := service.ValidateRenewalPeriod(days); err != nil {
		return err
	}
	m.period = days
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.InitDatabase(config.Database{Driver: "sqlite", URL: "file::memory:"})
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestCredentialStore(t *testing.T) service.CredentialStore {
	t.Helper()
	return service.NewCredentialStore(repository.NewSettingRepository(newTestDB(t)), cache.NewNopCache())
}

type testRequest struct {
	method  string
	body    string
	storeID string
	query   string
	params  map[string]string
}

// serve routes the request through echo so path params and the default
// error handler behave as they do in the server.
func serve(t *testing.T, h echo.HandlerFunc, r testRequest) (*httptest.ResponseRecorder, int) {
	t.Helper()

	names := make([]string, 0, len(r.params))
	for name := range r.params {
		names = append(names, name)
	}
	slices.Sort(names)

	route, target := "", ""
	for _, name := range names {
		route += "/:" + name
		target += "/" + r.params[name]
	}
	if route == "" {
		route, target = "/", "/"
	}
	if r.query != "" {
		target += "?" + r.query
	}

	e := echo.New()
	e.Add(r.method, route, h)

	req := httptest.NewRequest(r.method, target, strings.NewReader(r.body))
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.storeID != "" {
		req.Header.Set(storeIDHeader, r.storeID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, rec.Code
}
