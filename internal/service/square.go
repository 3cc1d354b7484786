package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"square-payment-gateway/internal/client"
	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SquareService binds Square API calls to a store's credentials and turns
// every failure into ErrNoServiceResponse, a ProcessorError or a
// configuration error.
type SquareService interface {
	BuildClient(ctx context.Context, storeID int) (client.SquareClient, error)
	RetrieveLocation(ctx context.Context, storeID int, locationID string) (*model.SquareLocation, error)
	GetSelectedActiveLocation(ctx context.Context, storeID int) (*model.SquareLocation, error)
	ListActiveLocations(ctx context.Context, storeID int) ([]model.SquareLocation, error)
	GetCustomer(ctx context.Context, storeID int, customerID string) (*model.SquareCustomer, error)
	CreateCustomer(ctx context.Context, storeID int, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error)
	CreateCard(ctx context.Context, storeID int, req *model.SquareCreateCardRequest) (*model.SquareCard, error)
	ListCards(ctx context.Context, storeID int, customerID string) ([]model.SquareCard, error)
	CreatePayment(ctx context.Context, storeID int, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error)
	CompletePayment(ctx context.Context, storeID int, paymentID string) (*model.SquarePayment, error)
	CancelPayment(ctx context.Context, storeID int, paymentID string) (*model.SquarePayment, error)
	RefundPayment(ctx context.Context, storeID int, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error)
}

// ClientFactory builds a Square client for one set of options.
type ClientFactory func(opts client.SquareClientOptions) client.SquareClient

type squareServiceImpl struct {
	credentials CredentialStore
	squareCfg   config.Square
	newClient   ClientFactory
	logger      *zap.Logger

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
}

func NewSquareService(credentials CredentialStore, squareCfg config.Square, newClient ClientFactory, logger *zap.Logger) SquareService {
	if newClient == nil {
		newClient = client.NewSquareClient
	}
	return &squareServiceImpl{
		credentials: credentials,
		squareCfg:   squareCfg,
		newClient:   newClient,
		logger:      logger.Named("square"),
		limiters:    make(map[int]*rate.Limiter),
	}
}

func (s *squareServiceImpl) limiter(storeID int) *rate.Limiter {
	if s.squareCfg.RateLimit <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[storeID]
	if !ok {
		burst := int(math.Max(1, math.Ceil(s.squareCfg.RateLimit)))
		l = rate.NewLimiter(rate.Limit(s.squareCfg.RateLimit), burst)
		s.limiters[storeID] = l
	}
	return l
}

func (s *squareServiceImpl) BuildClient(ctx context.Context, storeID int) (client.SquareClient, error) {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if creds.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	// production tokens come in pairs from OAuth
	if !creds.UseSandbox && creds.HasPartialTokens() {
		return nil, ErrMissingCredentials
	}

	baseURL := s.squareCfg.ProductionURL
	if creds.UseSandbox {
		baseURL = s.squareCfg.SandboxURL
	}

	return s.newClient(client.SquareClientOptions{
		BaseURL:     baseURL,
		AccessToken: creds.AccessToken,
		APIVersion:  s.squareCfg.APIVersion,
		UserAgent:   s.squareCfg.UserAgent,
		Timeout:     s.squareCfg.Timeout,
		Limiter:     s.limiter(storeID),
	}), nil
}

// call runs fn against a client built for the store, bounded by the
// configured timeout. Failures are logged with the store and extra fields.
func (s *squareServiceImpl) call(ctx context.Context, storeID int, op string, fields []zap.Field, fn func(context.Context, client.SquareClient) error) error {
	fields = append([]zap.Field{zap.Int("store_id", storeID), zap.String("op", op)}, fields...)

	c, err := s.BuildClient(ctx, storeID)
	if err != nil {
		s.logger.Error("square client unavailable", append(fields, zap.Error(err))...)
		return err
	}

	if s.squareCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.squareCfg.Timeout)
		defer cancel()
	}

	if err := fn(ctx, c); err != nil {
		s.logger.Error("square request failed", append(fields, zap.Error(err))...)
		return newProcessorError(op, err)
	}
	return nil
}

func (s *squareServiceImpl) RetrieveLocation(ctx context.Context, storeID int, locationID string) (*model.SquareLocation, error) {
	var loc *model.SquareLocation
	err := s.call(ctx, storeID, "retrieve location", []zap.Field{zap.String("location_id", locationID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			loc, err = c.RetrieveLocation(ctx, locationID)
			return err
		})
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, noResponse("retrieve location")
	}
	return loc, nil
}

// GetSelectedActiveLocation returns nil when no location is selected.
func (s *squareServiceImpl) GetSelectedActiveLocation(ctx context.Context, storeID int) (*model.SquareLocation, error) {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !creds.HasLocation() {
		return nil, nil
	}

	loc, err := s.RetrieveLocation(ctx, storeID, creds.LocationID)
	if err != nil {
		return nil, err
	}
	if !loc.CanProcessCards() {
		return nil, fmt.Errorf("location %s: %w", creds.LocationID, ErrNoActiveLocations)
	}
	return loc, nil
}

func (s *squareServiceImpl) ListActiveLocations(ctx context.Context, storeID int) ([]model.SquareLocation, error) {
	var all []model.SquareLocation
	err := s.call(ctx, storeID, "list locations", nil, func(ctx context.Context, c client.SquareClient) (err error) {
		all, err = c.ListLocations(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	active := make([]model.SquareLocation, 0, len(all))
	for i := range all {
		if all[i].CanProcessCards() {
			active = append(active, all[i])
		}
	}
	if len(active) == 0 {
		s.logger.Warn("no active locations", zap.Int("store_id", storeID), zap.Int("total", len(all)))
		return nil, ErrNoActiveLocations
	}
	return active, nil
}

// GetCustomer returns nil when Square does not know the customer.
func (s *squareServiceImpl) GetCustomer(ctx context.Context, storeID int, customerID string) (*model.SquareCustomer, error) {
	if customerID == "" {
		return nil, nil
	}

	var customer *model.SquareCustomer
	err := s.call(ctx, storeID, "retrieve customer", []zap.Field{zap.String("square_customer_id", customerID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			customer, err = c.RetrieveCustomer(ctx, customerID)
			return err
		})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.HasCode("NOT_FOUND") {
			return nil, nil
		}
		return nil, err
	}
	if customer == nil {
		return nil, noResponse("retrieve customer")
	}
	return customer, nil
}

func (s *squareServiceImpl) CreateCustomer(ctx context.Context, storeID int, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error) {
	var customer *model.SquareCustomer
	err := s.call(ctx, storeID, "create customer", []zap.Field{zap.String("reference_id", req.ReferenceID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			customer, err = c.CreateCustomer(ctx, req)
			return err
		})
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, noResponse("create customer")
	}
	return customer, nil
}

func (s *squareServiceImpl) CreateCard(ctx context.Context, storeID int, req *model.SquareCreateCardRequest) (*model.SquareCard, error) {
	var card *model.SquareCard
	err := s.call(ctx, storeID, "create card", []zap.Field{zap.String("square_customer_id", req.Card.CustomerID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			card, err = c.CreateCard(ctx, req)
			return err
		})
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, noResponse("create card")
	}
	return card, nil
}

func (s *squareServiceImpl) ListCards(ctx context.Context, storeID int, customerID string) ([]model.SquareCard, error) {
	var cards []model.SquareCard
	err := s.call(ctx, storeID, "list cards", []zap.Field{zap.String("square_customer_id", customerID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			cards, err = c.ListCards(ctx, customerID)
			return err
		})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *squareServiceImpl) CreatePayment(ctx context.Context, storeID int, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
	var payment *model.SquarePayment
	err := s.call(ctx, storeID, "create payment", []zap.Field{zap.String("reference_id", req.ReferenceID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			payment, err = c.CreatePayment(ctx, req)
			return err
		})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, noResponse("create payment")
	}
	return payment, nil
}

func (s *squareServiceImpl) CompletePayment(ctx context.Context, storeID int, paymentID string) (*model.SquarePayment, error) {
	var payment *model.SquarePayment
	err := s.call(ctx, storeID, "complete payment", []zap.Field{zap.String("payment_id", paymentID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			payment, err = c.CompletePayment(ctx, paymentID)
			return err
		})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, noResponse("complete payment")
	}
	return payment, nil
}

func (s *squareServiceImpl) CancelPayment(ctx context.Context, storeID int, paymentID string) (*model.SquarePayment, error) {
	var payment *model.SquarePayment
	err := s.call(ctx, storeID, "cancel payment", []zap.Field{zap.String("payment_id", paymentID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			payment, err = c.CancelPayment(ctx, paymentID)
			return err
		})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, noResponse("cancel payment")
	}
	return payment, nil
}

func (s *squareServiceImpl) RefundPayment(ctx context.Context, storeID int, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error) {
	var refund *model.SquareRefund
	err := s.call(ctx, storeID, "refund payment", []zap.Field{zap.String("payment_id", req.PaymentID)},
		func(ctx context.Context, c client.SquareClient) (err error) {
			refund, err = c.RefundPayment(ctx, req)
			return err
		})
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, noResponse("refund payment")
	}
	return refund, nil
}
