package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"square-payment-gateway/internal/event"
	"square-payment-gateway/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testOrderGUID = "9f0c3a6e-2c43-4c36-9a4b-6f1d8e2f5b10"

type paymentFixture struct {
	svc   PaymentService
	sq    *mockSquareClient
	pub   *mockPublisher
	attrs *mockAttributes
	store CredentialStore
	logs  *observer.ObservedLogs
}

func sandboxCharge() model.MerchantCredentials {
	return model.MerchantCredentials{
		UseSandbox:      true,
		AccessToken:     "sandbox-token",
		LocationID:      "L1",
		TransactionMode: model.TransactionModeCharge,
	}
}

func registeredCustomer() *model.Customer {
	return &model.Customer{
		ID:           42,
		CustomerGUID: "cust-guid-42",
		Email:        "buyer@example.com",
		Username:     "buyer",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		BillingAddress: &model.Address{
			FirstName:     "Ada",
			LastName:      "Lovelace",
			Email:         "billing@example.com",
			Address1:      "1 Main St",
			City:          "Springfield",
			CountryCode:   "US",
			ZipPostalCode: "12345",
		},
	}
}

func newPaymentFixture(t *testing.T, creds model.MerchantCredentials, customer *model.Customer, currencyCode string) *paymentFixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	f := &paymentFixture{
		sq:    &mockSquareClient{},
		pub:   &mockPublisher{},
		attrs: &mockAttributes{},
		store: newTestCredentialStore(t),
		logs:  logs,
	}
	seedCredentials(t, f.store, 1, creds)

	square := NewSquareService(f.store, testSquareConfig, factoryFor(f.sq, nil), logger)
	f.svc = NewPaymentService(
		f.store,
		square,
		mockCustomers{customer.ID: customer},
		staticCurrency(currencyCode),
		f.attrs,
		f.pub,
		testSquareConfig,
		logger,
	)
	return f
}

func nonceIntent(nonce string) *model.PaymentIntent {
	return &model.PaymentIntent{
		StoreID:    1,
		CustomerID: 42,
		OrderID:    "1001",
		OrderGUID:  testOrderGUID,
		OrderTotal: decimal.RequireFromString("19.99"),
		Source:     model.PaymentSource{CardNonce: nonce},
	}
}

func TestProcessPayment_ChargeWithNonce(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")

	var sent *model.SquareCreatePaymentRequest
	f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		sent = req
		return &model.SquarePayment{ID: "pay-1", Status: "COMPLETED"}, nil
	}

	result, err := f.svc.ProcessPayment(context.Background(), nonceIntent("nonce-abc"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sent.AmountMoney.Amount != 1999 || sent.AmountMoney.Currency != "USD" {
		t.Errorf("amount = %+v", sent.AmountMoney)
	}
	if !sent.Autocomplete || sent.SourceID != "nonce-abc" || sent.LocationID != "L1" {
		t.Errorf("request = %+v", sent)
	}
	if sent.ReferenceID != testOrderGUID || !strings.Contains(sent.Note, testOrderGUID) {
		t.Errorf("reference/note = %q / %q", sent.ReferenceID, sent.Note)
	}
	if sent.IntegrationID != "" {
		t.Errorf("integration id must not be sent in sandbox, got %q", sent.IntegrationID)
	}
	if _, err := uuid.Parse(sent.IdempotencyKey); err != nil {
		t.Errorf("idempotency key %q: %v", sent.IdempotencyKey, err)
	}
	if sent.BillingAddress == nil || sent.ShippingAddress != nil || sent.BuyerEmailAddress != "billing@example.com" {
		t.Errorf("address mapping: billing=%+v shipping=%+v email=%q", sent.BillingAddress, sent.ShippingAddress, sent.BuyerEmailAddress)
	}
	if sent.BillingAddress.Country != "US" {
		t.Errorf("country = %q", sent.BillingAddress.Country)
	}

	if result.NewPaymentStatus != model.PaymentStatusPaid || result.CaptureTransactionID != "pay-1" {
		t.Errorf("result = %+v", result)
	}
	if result.AuthorizationTransactionID != "" || !strings.Contains(result.CaptureTransactionResult, "COMPLETED") {
		t.Errorf("result = %+v", result)
	}
	if types := f.pub.Types(); len(types) != 1 || types[0] != event.TypePaymentPaid {
		t.Errorf("events = %v", types)
	}
}

func TestProcessPayment_AuthorizeInProduction(t *testing.T) {
	creds := model.MerchantCredentials{
		AccessToken:     "a",
		RefreshToken:    "r",
		LocationID:      "L1",
		TransactionMode: model.TransactionModeAuthorize,
	}
	f := newPaymentFixture(t, creds, registeredCustomer(), "usd")

	var sent *model.SquareCreatePaymentRequest
	f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		sent = req
		return &model.SquarePayment{ID: "pay-2", Status: "APPROVED"}, nil
	}

	result, err := f.svc.ProcessPayment(context.Background(), nonceIntent("nonce"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.Autocomplete {
		t.Error("authorize mode must not autocomplete")
	}
	if sent.IntegrationID != testSquareConfig.IntegrationID {
		t.Errorf("integration id = %q", sent.IntegrationID)
	}
	if sent.AmountMoney.Currency != "USD" {
		t.Errorf("currency = %q", sent.AmountMoney.Currency)
	}
	if result.NewPaymentStatus != model.PaymentStatusAuthorized || result.AuthorizationTransactionID != "pay-2" || result.CaptureTransactionID != "" {
		t.Errorf("result = %+v", result)
	}
}

func TestProcessPayment_Validation(t *testing.T) {
	tests := []struct {
		name      string
		creds     func() model.MerchantCredentials
		currency  string
		customer  func() *model.Customer
		intent    func() *model.PaymentIntent
		recurring bool
		wantErr   error
	}{
		{
			name:     "unsupported currency",
			creds:    sandboxCharge,
			currency: "ZZZ",
			intent:   func() *model.PaymentIntent { return nonceIntent("n") },
			wantErr:  ErrUnsupportedCurrency,
		},
		{
			name: "3ds without verification token",
			creds: func() model.MerchantCredentials {
				c := sandboxCharge()
				c.Use3DS = true
				return c
			},
			intent:  func() *model.PaymentIntent { return nonceIntent("n") },
			wantErr: ErrMissingVerificationToken,
		},
		{
			name: "no location",
			creds: func() model.MerchantCredentials {
				c := sandboxCharge()
				c.LocationID = "0"
				return c
			},
			intent:  func() *model.PaymentIntent { return nonceIntent("n") },
			wantErr: ErrNoLocationConfigured,
		},
		{
			name:    "missing nonce",
			creds:   sandboxCharge,
			intent:  func() *model.PaymentIntent { return nonceIntent("") },
			wantErr: ErrMissingCardNonce,
		},
		{
			name:      "recurring without any card",
			creds:     sandboxCharge,
			intent:    func() *model.PaymentIntent { return nonceIntent("") },
			recurring: true,
			wantErr:   ErrRecurringRequiresSavedCard,
		},
		{
			name:      "recurring with nonce not saved",
			creds:     sandboxCharge,
			intent:    func() *model.PaymentIntent { return nonceIntent("n") },
			recurring: true,
			wantErr:   ErrRecurringRequiresSavedCard,
		},
		{
			name:  "recurring guest",
			creds: sandboxCharge,
			customer: func() *model.Customer {
				c := registeredCustomer()
				c.IsGuest = true
				return c
			},
			intent: func() *model.PaymentIntent {
				i := nonceIntent("n")
				i.Source.SaveCard = true
				return i
			},
			recurring: true,
			wantErr:   ErrRecurringRequiresSavedCard,
		},
		{
			name: "missing access token",
			creds: func() model.MerchantCredentials {
				c := sandboxCharge()
				c.AccessToken = ""
				return c
			},
			intent:  func() *model.PaymentIntent { return nonceIntent("n") },
			wantErr: ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			currencyCode := tt.currency
			if currencyCode == "" {
				currencyCode = "USD"
			}
			customer := registeredCustomer()
			if tt.customer != nil {
				customer = tt.customer()
			}
			f := newPaymentFixture(t, tt.creds(), customer, currencyCode)

			_, err := f.svc.ProcessPayment(context.Background(), tt.intent(), tt.recurring)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsValidation(err) && tt.wantErr != ErrMissingCredentials {
				t.Errorf("IsValidation(%v) = false", err)
			}
			if n := f.sq.Calls("CreatePayment"); n != 0 {
				t.Errorf("CreatePayment called %d times", n)
			}
			if len(f.pub.Types()) != 0 {
				t.Errorf("no event expected, got %v", f.pub.Types())
			}
		})
	}
}

func TestProcessRecurringPayment_SavesCard(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")

	var cardReq *model.SquareCreateCardRequest
	f.sq.CreateCardFunc = func(_ context.Context, req *model.SquareCreateCardRequest) (*model.SquareCard, error) {
		cardReq = req
		return &model.SquareCard{ID: "ccof-9", CustomerID: req.Card.CustomerID}, nil
	}
	var sent *model.SquareCreatePaymentRequest
	f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		sent = req
		return &model.SquarePayment{ID: "pay-3", Status: "COMPLETED"}, nil
	}

	intent := nonceIntent("nonce-xyz")
	intent.Source.SaveCard = true
	intent.PostalCode = "99999"

	result, err := f.svc.ProcessRecurringPayment(context.Background(), intent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.sq.Calls("CreateCustomer") != 1 {
		t.Errorf("CreateCustomer calls = %d", f.sq.Calls("CreateCustomer"))
	}
	if id, _ := f.attrs.Get(context.Background(), customerKeyGroup, 42, squareCustomerIDAttribute, 1); id != "sq-cust-new" {
		t.Errorf("square customer id attribute = %q", id)
	}
	if cardReq.SourceID != "nonce-xyz" || cardReq.Card.CustomerID != "sq-cust-new" {
		t.Errorf("card request = %+v", cardReq)
	}
	if cardReq.Card.BillingAddress == nil || cardReq.Card.BillingAddress.PostalCode != "99999" {
		t.Errorf("card billing address = %+v", cardReq.Card.BillingAddress)
	}
	if sent.SourceID != "ccof-9" || sent.CustomerID != "sq-cust-new" {
		t.Errorf("payment request = %+v", sent)
	}
	if result.StoredCardID != "ccof-9" {
		t.Errorf("StoredCardID = %q", result.StoredCardID)
	}
}

func TestProcessPayment_SaveCardFailureFallsBackToNonce(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	f.sq.CreateCardFunc = func(context.Context, *model.SquareCreateCardRequest) (*model.SquareCard, error) {
		return nil, errors.New("card rejected")
	}
	var sent *model.SquareCreatePaymentRequest
	f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		sent = req
		return &model.SquarePayment{ID: "pay-4", Status: "COMPLETED"}, nil
	}

	intent := nonceIntent("nonce-fallback")
	intent.Source.SaveCard = true

	result, err := f.svc.ProcessPayment(context.Background(), intent, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.SourceID != "nonce-fallback" || sent.CustomerID != "" {
		t.Errorf("payment request = %+v", sent)
	}
	if result.StoredCardID != "" {
		t.Errorf("StoredCardID = %q", result.StoredCardID)
	}
	if f.logs.FilterMessage("save card failed").Len() != 1 {
		t.Error("expected a save card warning")
	}
}

func TestProcessPayment_StoredCard(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	f.attrs.Set(context.Background(), &model.GenericAttribute{
		KeyGroup: customerKeyGroup, EntityID: 42, Key: squareCustomerIDAttribute, StoreID: 1, Value: "sq-cust-42",
	})

	var sent *model.SquareCreatePaymentRequest
	f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		sent = req
		return &model.SquarePayment{ID: "pay-5", Status: "COMPLETED"}, nil
	}

	intent := nonceIntent("")
	intent.Source.StoredCardID = "ccof-42"

	if _, err := f.svc.ProcessRecurringPayment(context.Background(), intent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent.SourceID != "ccof-42" || sent.CustomerID != "sq-cust-42" {
		t.Errorf("payment request = %+v", sent)
	}
	if f.sq.Calls("CreateCard") != 0 || f.sq.Calls("CreateCustomer") != 0 {
		t.Error("stored card must not create cards or customers")
	}
}

func TestProcessPayment_NoStoredCardSentinels(t *testing.T) {
	for _, sentinel := range []string{"0", uuid.Nil.String()} {
		t.Run(sentinel, func(t *testing.T) {
			f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
			var sent *model.SquareCreatePaymentRequest
			f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
				sent = req
				return &model.SquarePayment{ID: "pay-6", Status: "COMPLETED"}, nil
			}

			intent := nonceIntent("nonce-1")
			intent.Source.StoredCardID = sentinel

			if _, err := f.svc.ProcessPayment(context.Background(), intent, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sent.SourceID != "nonce-1" {
				t.Errorf("source = %q, want the nonce", sent.SourceID)
			}
		})
	}
}

func TestProcessPayment_ChargebackWarning(t *testing.T) {
	tests := []struct {
		name     string
		customer func() *model.Customer
		warn     bool
		shipping bool
	}{
		{name: "billing with email", customer: registeredCustomer},
		{
			name: "no addresses",
			customer: func() *model.Customer {
				c := registeredCustomer()
				c.BillingAddress = nil
				return c
			},
			warn: true,
		},
		{
			name: "billing without email",
			customer: func() *model.Customer {
				c := registeredCustomer()
				c.BillingAddress.Email = ""
				return c
			},
			warn: true,
		},
		{
			name: "shipping only",
			customer: func() *model.Customer {
				c := registeredCustomer()
				c.ShippingAddress = c.BillingAddress
				c.BillingAddress = nil
				return c
			},
			shipping: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, sandboxCharge(), tt.customer(), "USD")
			var sent *model.SquareCreatePaymentRequest
			f.sq.CreatePaymentFunc = func(_ context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
				sent = req
				return &model.SquarePayment{ID: "p", Status: "COMPLETED"}, nil
			}

			if _, err := f.svc.ProcessPayment(context.Background(), nonceIntent("n"), false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			warned := f.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("chargeback").Len() > 0
			if warned != tt.warn {
				t.Errorf("warned = %v, want %v", warned, tt.warn)
			}
			if tt.shipping && (sent.ShippingAddress == nil || sent.BillingAddress != nil || sent.BuyerEmailAddress == "") {
				t.Errorf("shipping fallback: %+v", sent)
			}
		})
	}
}

func TestProcessPayment_ProcessorError(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	f.sq.CreatePaymentFunc = func(context.Context, *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
		return nil, errors.New("connection reset")
	}

	_, err := f.svc.ProcessPayment(context.Background(), nonceIntent("n"), false)
	if !errors.Is(err, ErrServiceError) || err.Error() != "connection reset" {
		t.Errorf("expected processor error with transport message, got %v", err)
	}
	if !IsProcessorError(err) {
		t.Error("IsProcessorError = false")
	}
}

func TestCaptureAndVoid(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	ctx := context.Background()

	captured, err := f.svc.Capture(ctx, 1, "pay-7")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if captured.NewPaymentStatus != model.PaymentStatusPaid || captured.CaptureTransactionID != "pay-7" {
		t.Errorf("capture result = %+v", captured)
	}

	voided, err := f.svc.Void(ctx, 1, "pay-8")
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.NewPaymentStatus != model.PaymentStatusVoided {
		t.Errorf("void result = %+v", voided)
	}

	types := f.pub.Types()
	if len(types) != 2 || types[0] != event.TypePaymentPaid || types[1] != event.TypePaymentVoided {
		t.Errorf("events = %v", types)
	}
}

func TestRefund(t *testing.T) {
	tests := []struct {
		name             string
		statuses         []string
		amount           string
		requireCompleted bool
		wantCalls        int
		wantStatus       model.RefundStatus
		wantPayment      model.PaymentStatus
		wantErrors       []string
		wantErr          error
	}{
		{
			name:        "completed full",
			statuses:    []string{"COMPLETED"},
			amount:      "19.99",
			wantCalls:   1,
			wantStatus:  model.RefundStatusCompleted,
			wantPayment: model.PaymentStatusRefunded,
		},
		{
			name:        "pending then completed partial",
			statuses:    []string{"PENDING", "COMPLETED"},
			amount:      "5.00",
			wantCalls:   2,
			wantStatus:  model.RefundStatusCompleted,
			wantPayment: model.PaymentStatusPartiallyRefunded,
		},
		{
			name:       "pending twice",
			statuses:   []string{"PENDING", "PENDING"},
			amount:     "19.99",
			wantCalls:  2,
			wantStatus: model.RefundStatusPending,
			wantErrors: []string{"Refund is PENDING"},
		},
		{
			name:       "rejected",
			statuses:   []string{"REJECTED"},
			amount:     "19.99",
			wantCalls:  1,
			wantStatus: model.RefundStatusFailed,
			wantErrors: []string{"Refund is REJECTED"},
		},
		{
			name:             "pending twice must complete",
			statuses:         []string{"PENDING", "PENDING"},
			amount:           "19.99",
			requireCompleted: true,
			wantCalls:        2,
			wantErr:          ErrServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
			var keys []string
			f.sq.RefundPaymentFunc = func(_ context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error) {
				status := tt.statuses[len(keys)]
				keys = append(keys, req.IdempotencyKey)
				if req.PaymentID != "pay-1" || req.AmountMoney.Currency != "USD" {
					t.Errorf("refund request = %+v", req)
				}
				return &model.SquareRefund{ID: "rf-1", Status: status}, nil
			}

			result, err := f.svc.Refund(context.Background(), &model.RefundRequest{
				StoreID:          1,
				TransactionID:    "pay-1",
				AmountToRefund:   decimal.RequireFromString(tt.amount),
				CapturedTotal:    decimal.RequireFromString("19.99"),
				RequireCompleted: tt.requireCompleted,
			})
			if len(keys) != tt.wantCalls {
				t.Fatalf("refund calls = %d, want %d", len(keys), tt.wantCalls)
			}
			if len(keys) == 2 && keys[0] == keys[1] {
				t.Error("retry must use a fresh idempotency key")
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus || result.NewPaymentStatus != tt.wantPayment {
				t.Errorf("result = %+v", result)
			}
			if strings.Join(result.Errors, ",") != strings.Join(tt.wantErrors, ",") {
				t.Errorf("errors = %v, want %v", result.Errors, tt.wantErrors)
			}
			if result.Success() != (tt.wantStatus == model.RefundStatusCompleted) {
				t.Errorf("Success() = %v", result.Success())
			}
		})
	}
}

func TestRefund_MinorUnits(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	var amount int64
	f.sq.RefundPaymentFunc = func(_ context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error) {
		amount = req.AmountMoney.Amount
		return &model.SquareRefund{ID: "rf", Status: "COMPLETED"}, nil
	}

	_, err := f.svc.Refund(context.Background(), &model.RefundRequest{
		StoreID:        1,
		TransactionID:  "pay-1",
		AmountToRefund: decimal.RequireFromString("10.50"),
		CapturedTotal:  decimal.RequireFromString("10.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 1050 {
		t.Errorf("amount = %d, want 1050", amount)
	}
}

func TestAdditionalFee(t *testing.T) {
	tests := []struct {
		name       string
		fee        string
		percentage bool
		subtotal   string
		want       string
	}{
		{name: "none", fee: "0", subtotal: "100", want: "0"},
		{name: "fixed", fee: "2.5", subtotal: "100", want: "2.5"},
		{name: "percentage", fee: "3", percentage: true, subtotal: "19.99", want: "0.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := sandboxCharge()
			creds.AdditionalFee = decimal.RequireFromString(tt.fee)
			creds.AdditionalFeePercentage = tt.percentage
			f := newPaymentFixture(t, creds, registeredCustomer(), "USD")

			got, err := f.svc.AdditionalFee(context.Background(), 1, decimal.RequireFromString(tt.subtotal))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("fee = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListStoredCards(t *testing.T) {
	f := newPaymentFixture(t, sandboxCharge(), registeredCustomer(), "USD")
	ctx := context.Background()

	cards, err := f.svc.ListStoredCards(ctx, 1, 42)
	if err != nil || len(cards) != 0 {
		t.Fatalf("unlinked customer: cards=%v err=%v", cards, err)
	}

	f.attrs.Set(ctx, &model.GenericAttribute{KeyGroup: customerKeyGroup, EntityID: 42, Key: squareCustomerIDAttribute, StoreID: 1, Value: "sq-42"})
	f.sq.ListCardsFunc = func(_ context.Context, customerID string) ([]model.SquareCard, error) {
		if customerID != "sq-42" {
			t.Errorf("customer id = %q", customerID)
		}
		return []model.SquareCard{{ID: "ccof-1", Last4: "1111"}}, nil
	}

	cards, err = f.svc.ListStoredCards(ctx, 1, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Last4 != "1111" {
		t.Errorf("cards = %+v", cards)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	tests := []struct {
		status string
		want   model.PaymentStatus
	}{
		{"APPROVED", model.PaymentStatusAuthorized},
		{"approved", model.PaymentStatusAuthorized},
		{"COMPLETED", model.PaymentStatusPaid},
		{"FAILED", model.PaymentStatusPending},
		{"CANCELED", model.PaymentStatusVoided},
		{"PENDING", model.PaymentStatusPending},
		{"", model.PaymentStatusPending},
	}
	for _, tt := range tests {
		if got := GetPaymentStatus(tt.status); got != tt.want {
			t.Errorf("GetPaymentStatus(%q) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestCheckSupportCurrency(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"USD", true},
		{"usd", true},
		{"EUR", true},
		{"JPY", true},
		{"GBP", true},
		{"ZZZ", false},
		{"", false},
		{"US", false},
	}
	for _, tt := range tests {
		if got := CheckSupportCurrency(tt.code); got != tt.want {
			t.Errorf("CheckSupportCurrency(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCountryCode(t *testing.T) {
	tests := map[string]string{
		"US":  "US",
		"gb":  "GB",
		"":    "",
		"USA": "",
		"ZZ":  "",
	}
	for in, want := range tests {
		if got := countryCode(in); got != want {
			t.Errorf("countryCode(%q) = %q, want %q", in, got, want)
		}
	}
}
