package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/event"
	"square-payment-gateway/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

const paymentNoteFormat = "Order %s"

var hundred = decimal.NewFromInt(100)

type PaymentService interface {
	ProcessPayment(ctx context.Context, intent *model.PaymentIntent, isRecurring bool) (*model.PaymentResult, error)
	ProcessRecurringPayment(ctx context.Context, intent *model.PaymentIntent) (*model.PaymentResult, error)
	Capture(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error)
	Void(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error)
	Refund(ctx context.Context, req *model.RefundRequest) (*model.RefundResult, error)
	AdditionalFee(ctx context.Context, storeID int, subtotal decimal.Decimal) (decimal.Decimal, error)
	ListStoredCards(ctx context.Context, storeID int, customerID int64) ([]model.SquareCard, error)
}

type paymentServiceImpl struct {
	credentials CredentialStore
	square      SquareService
	customers   CustomerProvider
	currencies  CurrencyProvider
	attributes  AttributeStore
	publisher   event.Publisher
	squareCfg   config.Square
	logger      *zap.Logger
}

func NewPaymentService(
	credentials CredentialStore,
	square SquareService,
	customers CustomerProvider,
	currencies CurrencyProvider,
	attributes AttributeStore,
	publisher event.Publisher,
	squareCfg config.Square,
	logger *zap.Logger,
) PaymentService {
	if publisher == nil {
		publisher = event.NewNopPublisher()
	}
	return &paymentServiceImpl{
		credentials: credentials,
		square:      square,
		customers:   customers,
		currencies:  currencies,
		attributes:  attributes,
		publisher:   publisher,
		squareCfg:   squareCfg,
		logger:      logger.Named("payment"),
	}
}

func (s *paymentServiceImpl) ProcessRecurringPayment(ctx context.Context, intent *model.PaymentIntent) (*model.PaymentResult, error) {
	return s.ProcessPayment(ctx, intent, true)
}

func (s *paymentServiceImpl) ProcessPayment(ctx context.Context, intent *model.PaymentIntent, isRecurring bool) (*model.PaymentResult, error) {
	creds, err := s.credentials.Load(ctx, intent.StoreID)
	if err != nil {
		return nil, err
	}

	req, savedCardID, err := s.buildPaymentRequest(ctx, intent, creds, isRecurring)
	if err != nil {
		return nil, err
	}

	payment, err := s.square.CreatePayment(ctx, intent.StoreID, req)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Payment was processed. Status is %s", payment.Status)
	result := &model.PaymentResult{
		NewPaymentStatus:   GetPaymentStatus(payment.Status),
		ProcessorPaymentID: payment.ID,
	}
	switch creds.TransactionMode {
	case model.TransactionModeAuthorize:
		result.AuthorizationTransactionID = payment.ID
		result.AuthorizationTransactionResult = message
	case model.TransactionModeCharge:
		result.CaptureTransactionID = payment.ID
		result.CaptureTransactionResult = message
	}
	if isRecurring {
		result.StoredCardID = savedCardID
	}

	s.logger.Info("payment processed",
		zap.Int("store_id", intent.StoreID),
		zap.String("order_id", intent.OrderID),
		zap.String("payment_id", payment.ID),
		zap.String("status", payment.Status))
	s.publish(ctx, event.PaymentEvent{
		Type:      paymentEventType(result.NewPaymentStatus),
		StoreID:   intent.StoreID,
		OrderID:   intent.OrderID,
		PaymentID: payment.ID,
		Status:    payment.Status,
		Amount:    req.AmountMoney.Amount,
		Currency:  req.AmountMoney.Currency,
	})
	return result, nil
}

// buildPaymentRequest validates the intent and resolves the payment source.
// The returned card id is set when a card was saved on the way.
func (s *paymentServiceImpl) buildPaymentRequest(
	ctx context.Context,
	intent *model.PaymentIntent,
	creds *model.MerchantCredentials,
	isRecurring bool,
) (*model.SquareCreatePaymentRequest, string, error) {
	customer, err := s.customers.Get(ctx, intent.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("load customer %d: %w", intent.CustomerID, err)
	}

	currencyCode, err := s.currencies.PrimaryCurrency(ctx, intent.StoreID)
	if err != nil {
		return nil, "", fmt.Errorf("load primary currency: %w", err)
	}
	if !CheckSupportCurrency(currencyCode) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currencyCode)
	}

	billing := toSquareAddress(customer.BillingAddress)
	var shipping *model.SquareAddress
	if billing == nil {
		shipping = toSquareAddress(customer.ShippingAddress)
	}
	email := ""
	if customer.BillingAddress != nil {
		email = customer.BillingAddress.Email
	} else if customer.ShippingAddress != nil {
		email = customer.ShippingAddress.Email
	}
	if (billing == nil && shipping == nil) || email == "" {
		s.logger.Warn("address or email is not provided, so the transaction is ineligible for chargeback protection",
			zap.Int("store_id", intent.StoreID),
			zap.Int64("customer_id", customer.ID))
	}

	if creds.Use3DS && intent.VerificationToken == "" {
		return nil, "", ErrMissingVerificationToken
	}

	location, err := s.square.GetSelectedActiveLocation(ctx, intent.StoreID)
	if err != nil {
		return nil, "", err
	}
	if location == nil {
		return nil, "", ErrNoLocationConfigured
	}

	req := &model.SquareCreatePaymentRequest{
		IdempotencyKey: uuid.NewString(),
		AmountMoney: model.SquareMoney{
			Amount:   toMinorUnits(intent.OrderTotal),
			Currency: strings.ToUpper(currencyCode),
		},
		Autocomplete:      creds.TransactionMode == model.TransactionModeCharge,
		LocationID:        location.ID,
		ReferenceID:       intent.OrderGUID,
		Note:              fmt.Sprintf(paymentNoteFormat, intent.OrderGUID),
		VerificationToken: intent.VerificationToken,
		BuyerEmailAddress: email,
		BillingAddress:    billing,
		ShippingAddress:   shipping,
	}
	if !creds.UseSandbox {
		req.IntegrationID = s.squareCfg.IntegrationID
	}

	// card on file
	if storedCardID := normalizeCardID(intent.Source.StoredCardID); storedCardID != "" {
		squareCustomer, err := s.linkedSquareCustomer(ctx, intent.StoreID, customer)
		if err != nil {
			return nil, "", err
		}
		if squareCustomer == nil {
			return nil, "", fmt.Errorf("customer %d has no Square customer: %w", customer.ID, ErrNoServiceResponse)
		}
		req.CustomerID = squareCustomer.ID
		req.SourceID = storedCardID
		return req, "", nil
	}

	if intent.Source.CardNonce == "" {
		if isRecurring {
			return nil, "", ErrRecurringRequiresSavedCard
		}
		return nil, "", ErrMissingCardNonce
	}

	if intent.Source.SaveCard && !customer.IsGuest {
		card, err := s.saveCard(ctx, intent, customer, billing, shipping)
		if err == nil {
			req.CustomerID = card.CustomerID
			req.SourceID = card.ID
			return req, card.ID, nil
		}
		s.logger.Warn("save card failed",
			zap.Int("store_id", intent.StoreID),
			zap.Int64("customer_id", customer.ID),
			zap.Error(err))
		if isRecurring {
			return nil, "", fmt.Errorf("%w: %v", ErrRecurringRequiresSavedCard, err)
		}
	} else if isRecurring {
		return nil, "", ErrRecurringRequiresSavedCard
	}

	req.SourceID = intent.Source.CardNonce
	return req, "", nil
}

// saveCard stores the nonce as a card on file for the customer, creating
// the Square customer first when needed.
func (s *paymentServiceImpl) saveCard(
	ctx context.Context,
	intent *model.PaymentIntent,
	customer *model.Customer,
	billing, shipping *model.SquareAddress,
) (*model.SquareCard, error) {
	squareCustomer, err := s.linkedSquareCustomer(ctx, intent.StoreID, customer)
	if err != nil {
		return nil, err
	}
	if squareCustomer == nil {
		squareCustomer, err = s.square.CreateCustomer(ctx, intent.StoreID, &model.SquareCreateCustomerRequest{
			IdempotencyKey: uuid.NewString(),
			EmailAddress:   customer.Email,
			Nickname:       customer.Username,
			GivenName:      customer.FirstName,
			FamilyName:     customer.LastName,
			PhoneNumber:    customer.Phone,
			CompanyName:    customer.Company,
			ReferenceID:    customer.CustomerGUID,
		})
		if err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		err = s.attributes.Set(ctx, &model.GenericAttribute{
			KeyGroup: customerKeyGroup,
			EntityID: customer.ID,
			Key:      squareCustomerIDAttribute,
			StoreID:  intent.StoreID,
			Value:    squareCustomer.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("save square customer id: %w", err)
		}
	}

	cardAddress := billing
	if cardAddress == nil {
		cardAddress = shipping
	}
	if intent.PostalCode != "" {
		withPostal := model.SquareAddress{}
		if cardAddress != nil {
			withPostal = *cardAddress
		}
		withPostal.PostalCode = intent.PostalCode
		cardAddress = &withPostal
	}

	card, err := s.square.CreateCard(ctx, intent.StoreID, &model.SquareCreateCardRequest{
		IdempotencyKey:    uuid.NewString(),
		SourceID:          intent.Source.CardNonce,
		VerificationToken: intent.VerificationToken,
		Card: model.SquareCard{
			CustomerID:     squareCustomer.ID,
			BillingAddress: cardAddress,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	if card.CustomerID == "" {
		card.CustomerID = squareCustomer.ID
	}
	return card, nil
}

// linkedSquareCustomer returns the Square customer recorded for the platform
// customer in this store, or nil when there is none.
func (s *paymentServiceImpl) linkedSquareCustomer(ctx context.Context, storeID int, customer *model.Customer) (*model.SquareCustomer, error) {
	squareCustomerID, err := s.attributes.Get(ctx, customerKeyGroup, customer.ID, squareCustomerIDAttribute, storeID)
	if err != nil {
		return nil, fmt.Errorf("load square customer id: %w", err)
	}
	return s.square.GetCustomer(ctx, storeID, squareCustomerID)
}

func (s *paymentServiceImpl) Capture(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error) {
	payment, err := s.square.CompletePayment(ctx, storeID, transactionID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.PaymentEvent{Type: event.TypePaymentPaid, StoreID: storeID, PaymentID: transactionID, Status: payment.Status})
	return &model.PaymentResult{
		NewPaymentStatus:     model.PaymentStatusPaid,
		ProcessorPaymentID:   payment.ID,
		CaptureTransactionID: transactionID,
	}, nil
}

func (s *paymentServiceImpl) Void(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error) {
	payment, err := s.square.CancelPayment(ctx, storeID, transactionID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.PaymentEvent{Type: event.TypePaymentVoided, StoreID: storeID, PaymentID: transactionID, Status: payment.Status})
	return &model.PaymentResult{
		NewPaymentStatus:   model.PaymentStatusVoided,
		ProcessorPaymentID: payment.ID,
	}, nil
}

// Refund asks Square once more when the first answer is PENDING. A refund
// still not completed after that is a soft failure.
func (s *paymentServiceImpl) Refund(ctx context.Context, req *model.RefundRequest) (*model.RefundResult, error) {
	currencyCode, err := s.currencies.PrimaryCurrency(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("load primary currency: %w", err)
	}
	if !CheckSupportCurrency(currencyCode) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currencyCode)
	}

	newRequest := func() *model.SquareRefundPaymentRequest {
		return &model.SquareRefundPaymentRequest{
			IdempotencyKey: uuid.NewString(),
			AmountMoney: model.SquareMoney{
				Amount:   toMinorUnits(req.AmountToRefund),
				Currency: strings.ToUpper(currencyCode),
			},
			PaymentID: req.TransactionID,
		}
	}

	refund, err := s.square.RefundPayment(ctx, req.StoreID, newRequest())
	if err != nil {
		return nil, err
	}
	if refund.Status == model.RefundStatusPendingSquare {
		refund, err = s.square.RefundPayment(ctx, req.StoreID, newRequest())
		if err != nil {
			return nil, err
		}
	}

	if refund.Status != model.RefundStatusCompletedSquare {
		message := fmt.Sprintf("Refund is %s", refund.Status)
		if req.RequireCompleted {
			return nil, fmt.Errorf("%s: %w", message, ErrServiceError)
		}
		status := model.RefundStatusFailed
		if refund.Status == model.RefundStatusPendingSquare {
			status = model.RefundStatusPending
		}
		s.logger.Warn("refund not completed",
			zap.Int("store_id", req.StoreID),
			zap.String("payment_id", req.TransactionID),
			zap.String("status", refund.Status))
		return &model.RefundResult{
			Status:            status,
			ProcessorRefundID: refund.ID,
			Errors:            []string{message},
		}, nil
	}

	newStatus := model.PaymentStatusRefunded
	if req.AmountToRefund.LessThan(req.CapturedTotal) {
		newStatus = model.PaymentStatusPartiallyRefunded
	}

	s.publish(ctx, event.PaymentEvent{
		Type:      event.TypePaymentRefunded,
		StoreID:   req.StoreID,
		PaymentID: req.TransactionID,
		RefundID:  refund.ID,
		Status:    refund.Status,
		Amount:    toMinorUnits(req.AmountToRefund),
		Currency:  strings.ToUpper(currencyCode),
	})
	return &model.RefundResult{
		Status:            model.RefundStatusCompleted,
		ProcessorRefundID: refund.ID,
		NewPaymentStatus:  newStatus,
	}, nil
}

// AdditionalFee is the configured handling fee, either fixed or a
// percentage of the subtotal, rounded to cents.
func (s *paymentServiceImpl) AdditionalFee(ctx context.Context, storeID int, subtotal decimal.Decimal) (decimal.Decimal, error) {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return decimal.Zero, err
	}
	if !creds.AdditionalFee.IsPositive() {
		return decimal.Zero, nil
	}
	if creds.AdditionalFeePercentage {
		return subtotal.Mul(creds.AdditionalFee).Div(hundred).Round(2), nil
	}
	return creds.AdditionalFee.Round(2), nil
}

// ListStoredCards returns the cards saved for the customer in this store.
func (s *paymentServiceImpl) ListStoredCards(ctx context.Context, storeID int, customerID int64) ([]model.SquareCard, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", customerID, err)
	}
	if customer.IsGuest {
		return nil, nil
	}

	squareCustomer, err := s.linkedSquareCustomer(ctx, storeID, customer)
	if err != nil {
		return nil, err
	}
	if squareCustomer == nil {
		return nil, nil
	}

	return s.square.ListCards(ctx, storeID, squareCustomer.ID)
}

func (s *paymentServiceImpl) publish(ctx context.Context, ev event.PaymentEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func paymentEventType(status model.PaymentStatus) string {
	switch status {
	case model.PaymentStatusAuthorized:
		return event.TypePaymentAuthorized
	case model.PaymentStatusPaid:
		return event.TypePaymentPaid
	case model.PaymentStatusVoided:
		return event.TypePaymentVoided
	}
	return event.TypePaymentPending
}

// GetPaymentStatus maps a Square payment status onto the platform status.
func GetPaymentStatus(status string) model.PaymentStatus {
	switch strings.ToUpper(status) {
	case model.PaymentStatusApprovedSquare:
		return model.PaymentStatusAuthorized
	case model.PaymentStatusCompletedSquare:
		return model.PaymentStatusPaid
	case model.PaymentStatusFailedSquare:
		return model.PaymentStatusPending
	case model.PaymentStatusCanceledSquare:
		return model.PaymentStatusVoided
	}
	return model.PaymentStatusPending
}

var tenderCurrencies = sync.OnceValue(func() map[string]bool {
	codes := make(map[string]bool)
	it := currency.Query(currency.Date(time.Now()))
	for it.Next() {
		codes[it.Unit().String()] = true
	}
	return codes
})

// CheckSupportCurrency reports whether code is an ISO 4217 currency that is
// legal tender in some country.
func CheckSupportCurrency(code string) bool {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return false
	}
	return tenderCurrencies()[unit.String()]
}

// normalizeCardID treats "0" and the nil UUID as no stored card.
func normalizeCardID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || id == "0" || id == uuid.Nil.String() {
		return ""
	}
	return id
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).IntPart()
}

func toSquareAddress(addr *model.Address) *model.SquareAddress {
	if addr == nil {
		return nil
	}
	return &model.SquareAddress{
		AddressLine1:                 addr.Address1,
		AddressLine2:                 addr.Address2,
		Locality:                     addr.City,
		AdministrativeDistrictLevel1: addr.StateAbbreviation,
		AdministrativeDistrictLevel2: addr.County,
		PostalCode:                   addr.ZipPostalCode,
		Country:                      countryCode(addr.CountryCode),
		FirstName:                    addr.FirstName,
		LastName:                     addr.LastName,
	}
}

// countryCode passes on valid ISO 3166-1 alpha-2 codes only.
func countryCode(code string) string {
	if len(code) != 2 {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return region.String()
}

// IsProcessorError reports whether err came back from Square.
func IsProcessorError(err error) bool {
	return errors.Is(err, ErrServiceError) || errors.Is(err, ErrNoServiceResponse) || errors.Is(err, ErrNoActiveLocations)
}
