package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"square-payment-gateway/internal/client"
	"square-payment-gateway/internal/event"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestSettingRepo(t *testing.T) repository.SettingRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&model.StoreSetting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewSettingRepository(db)
}

func newTestCredentialStore(t *testing.T) CredentialStore {
	t.Helper()
	return NewCredentialStore(newTestSettingRepo(t), nil)
}

// seedCredentials writes every field of creds for the store.
func seedCredentials(t *testing.T, store CredentialStore, storeID int, creds model.MerchantCredentials) {
	t.Helper()
	if err := store.Save(context.Background(), storeID, &creds); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
}

// mockSquareClient implements client.SquareClient for testing.
type mockSquareClient struct {
	RetrieveLocationFunc func(ctx context.Context, locationID string) (*model.SquareLocation, error)
	ListLocationsFunc    func(ctx context.Context) ([]model.SquareLocation, error)
	RetrieveCustomerFunc func(ctx context.Context, customerID string) (*model.SquareCustomer, error)
	CreateCustomerFunc   func(ctx context.Context, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error)
	CreateCardFunc       func(ctx context.Context, req *model.SquareCreateCardRequest) (*model.SquareCard, error)
	ListCardsFunc        func(ctx context.Context, customerID string) ([]model.SquareCard, error)
	CreatePaymentFunc    func(ctx context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error)
	CompletePaymentFunc  func(ctx context.Context, paymentID string) (*model.SquarePayment, error)
	CancelPaymentFunc    func(ctx context.Context, paymentID string) (*model.SquarePayment, error)
	RefundPaymentFunc    func(ctx context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *mockSquareClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *mockSquareClient) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockSquareClient) RetrieveLocation(ctx context.Context, locationID string) (*model.SquareLocation, error) {
	m.record("RetrieveLocation")
	if m.RetrieveLocationFunc != nil {
		return m.RetrieveLocationFunc(ctx, locationID)
	}
	return &model.SquareLocation{ID: locationID, Status: model.LocationStatusActive, Capabilities: []string{model.LocationCapabilityProcessing}}, nil
}

func (m *mockSquareClient) ListLocations(ctx context.Context) ([]model.SquareLocation, error) {
	m.record("ListLocations")
	if m.ListLocationsFunc != nil {
		return m.ListLocationsFunc(ctx)
	}
	return nil, nil
}

func (m *mockSquareClient) RetrieveCustomer(ctx context.Context, customerID string) (*model.SquareCustomer, error) {
	m.record("RetrieveCustomer")
	if m.RetrieveCustomerFunc != nil {
		return m.RetrieveCustomerFunc(ctx, customerID)
	}
	return &model.SquareCustomer{ID: customerID}, nil
}

func (m *mockSquareClient) CreateCustomer(ctx context.Context, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error) {
	m.record("CreateCustomer")
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, req)
	}
	return &model.SquareCustomer{ID: "sq-cust-new", ReferenceID: req.ReferenceID}, nil
}

func (m *mockSquareClient) CreateCard(ctx context.Context, req *model.SquareCreateCardRequest) (*model.SquareCard, error) {
	m.record("CreateCard")
	if m.CreateCardFunc != nil {
		return m.CreateCardFunc(ctx, req)
	}
	return &model.SquareCard{ID: "ccof-new", CustomerID: req.Card.CustomerID}, nil
}

func (m *mockSquareClient) ListCards(ctx context.Context, customerID string) ([]model.SquareCard, error) {
	m.record("ListCards")
	if m.ListCardsFunc != nil {
		return m.ListCardsFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *mockSquareClient) CreatePayment(ctx context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
	m.record("CreatePayment")
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return &model.SquarePayment{ID: "pay-1", Status: model.PaymentStatusCompletedSquare}, nil
}

func (m *mockSquareClient) CompletePayment(ctx context.Context, paymentID string) (*model.SquarePayment, error) {
	m.record("CompletePayment")
	if m.CompletePaymentFunc != nil {
		return m.CompletePaymentFunc(ctx, paymentID)
	}
	return &model.SquarePayment{ID: paymentID, Status: model.PaymentStatusCompletedSquare}, nil
}

func (m *mockSquareClient) CancelPayment(ctx context.Context, paymentID string) (*model.SquarePayment, error) {
	m.record("CancelPayment")
	if m.CancelPaymentFunc != nil {
		return m.CancelPaymentFunc(ctx, paymentID)
	}
	return &model.SquarePayment{ID: paymentID, Status: model.PaymentStatusCanceledSquare}, nil
}

func (m *mockSquareClient) RefundPayment(ctx context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error) {
	m.record("RefundPayment")
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, req)
	}
	return &model.SquareRefund{ID: "refund-1", Status: model.RefundStatusCompletedSquare}, nil
}

// factoryFor returns a ClientFactory that always hands out m and records
// the options it was called with.
func factoryFor(m *mockSquareClient, opts *[]client.SquareClientOptions) ClientFactory {
	return func(o client.SquareClientOptions) client.SquareClient {
		if opts != nil {
			*opts = append(*opts, o)
		}
		return m
	}
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []event.PaymentEvent
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, ev event.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *mockPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, ev := range p.events {
		types[i] = ev.Type
	}
	return types
}

// mockCustomers serves customers from a map.
type mockCustomers map[int64]*model.Customer

func (m mockCustomers) Get(_ context.Context, customerID int64) (*model.Customer, error) {
	c, ok := m[customerID]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

type staticCurrency string

func (c staticCurrency) PrimaryCurrency(context.Context, int) (string, error) {
	return string(c), nil
}

// mockAttributes is an in-memory AttributeStore.
type mockAttributes struct {
	mu     sync.Mutex
	values map[string]string
}

func attrKey(keyGroup string, entityID int64, key string, storeID int) string {
	return fmt.Sprintf("%s|%d|%s|%d", keyGroup, entityID, key, storeID)
}

func (m *mockAttributes) Get(_ context.Context, keyGroup string, entityID int64, key string, storeID int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[attrKey(keyGroup, entityID, key, storeID)], nil
}

func (m *mockAttributes) Set(_ context.Context, attr *model.GenericAttribute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[attrKey(attr.KeyGroup, attr.EntityID, attr.Key, attr.StoreID)] = attr.Value
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
