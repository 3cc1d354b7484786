package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"square-payment-gateway/internal/model"

	square "github.com/square/square-go-sdk"
	squareclient "github.com/square/square-go-sdk/client"
	"github.com/square/square-go-sdk/core"
	"github.com/square/square-go-sdk/option"
	"golang.org/x/time/rate"
)

type SquareClient interface {
	RetrieveLocation(ctx context.Context, locationID string) (*model.SquareLocation, error)
	ListLocations(ctx context.Context) ([]model.SquareLocation, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*model.SquareCustomer, error)
	CreateCustomer(ctx context.Context, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error)
	CreateCard(ctx context.Context, req *model.SquareCreateCardRequest) (*model.SquareCard, error)
	ListCards(ctx context.Context, customerID string) ([]model.SquareCard, error)
	CreatePayment(ctx context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error)
	CompletePayment(ctx context.Context, paymentID string) (*model.SquarePayment, error)
	CancelPayment(ctx context.Context, paymentID string) (*model.SquarePayment, error)
	RefundPayment(ctx context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error)
}

// APIError is returned when Square answers with a non-2xx status or a
// populated errors list.
type APIError struct {
	StatusCode int
	Errors     []model.SquareError
}

func (e *APIError) Error() string {
	details := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		if se.Detail != "" {
			details = append(details, se.Detail)
		} else {
			details = append(details, se.Code)
		}
	}
	if len(details) == 0 {
		return fmt.Sprintf("square error: status %d", e.StatusCode)
	}
	return strings.Join(details, ";")
}

// HasCode reports whether any of the returned errors carries the code.
func (e *APIError) HasCode(code string) bool {
	for _, se := range e.Errors {
		if se.Code == code {
			return true
		}
	}
	return false
}

type SquareClientOptions struct {
	BaseURL     string
	AccessToken string
	APIVersion  string
	UserAgent   string
	Timeout     time.Duration
	Limiter     *rate.Limiter
	HTTPClient  *http.Client
}

// sdkTransport is the HTTP client handed to the SDK. Every request waits
// on the limiter and carries the pinned API version.
type sdkTransport struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	apiVersion    string
	userAgent     string
	authorization string
}

func (t *sdkTransport) Do(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if t.apiVersion != "" {
		req.Header.Set("Square-Version", t.apiVersion)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.authorization != "" {
		req.Header.Set("Authorization", t.authorization)
	}
	return t.httpClient.Do(req)
}

// newSDKClient builds a single-attempt SDK client. Retries stay with the
// callers, which know whether a request is idempotent.
func newSDKClient(baseURL, accessToken string, transport *sdkTransport) *squareclient.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/")),
		option.WithHTTPClient(transport),
		option.WithMaxAttempts(1),
	}
	if accessToken != "" {
		opts = append(opts, option.WithToken(accessToken))
	}
	return squareclient.NewClient(opts...)
}

// errorBody covers both the v2 errors list and the legacy message/type pair
// the OAuth endpoints still return.
type errorBody struct {
	Errors  []model.SquareError `json:"errors"`
	Message string              `json:"message"`
	Type    string              `json:"type"`
}

func (b errorBody) list() []model.SquareError {
	if len(b.Errors) == 0 && b.Message != "" {
		return []model.SquareError{{Code: b.Type, Detail: b.Message}}
	}
	return b.Errors
}

// translateError turns the SDK's error for a non-2xx answer into *APIError.
// Transport failures are returned unchanged.
func translateError(err error) error {
	var sdkErr *core.APIError
	if !errors.As(err, &sdkErr) {
		return err
	}

	apiErr := &APIError{StatusCode: sdkErr.StatusCode}
	if body := sdkErr.Unwrap(); body != nil {
		var parsed errorBody
		if json.Unmarshal([]byte(body.Error()), &parsed) == nil {
			apiErr.Errors = parsed.list()
		}
	}
	return apiErr
}

// convert copies between the model wire types and the SDK types. Both
// follow Square's JSON names.
func convert(from, to interface{}) error {
	b, err := json.Marshal(from)
	if err != nil {
		return fmt.Errorf("encode square payload: %w", err)
	}
	if err := json.Unmarshal(b, to); err != nil {
		return fmt.Errorf("decode square payload: %w", err)
	}
	return nil
}

// decode surfaces the errors list of a 2xx response before copying it into
// out.
func decode(res, out interface{}) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode square response: %w", err)
	}

	var envelope errorBody
	if err := json.Unmarshal(b, &envelope); err == nil && len(envelope.Errors) > 0 {
		return &APIError{StatusCode: http.StatusOK, Errors: envelope.Errors}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode square response: %w", err)
	}
	return nil
}

type squareClientImpl struct {
	sdk *squareclient.Client
}

func NewSquareClient(opts SquareClientOptions) SquareClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
		}
	}

	transport := &sdkTransport{
		httpClient: httpClient,
		limiter:    opts.Limiter,
		apiVersion: opts.APIVersion,
		userAgent:  opts.UserAgent,
	}
	return &squareClientImpl{
		sdk: newSDKClient(opts.BaseURL, opts.AccessToken, transport),
	}
}

func (c *squareClientImpl) RetrieveLocation(ctx context.Context, locationID string) (*model.SquareLocation, error) {
	res, err := c.sdk.Locations.Get(ctx, &square.GetLocationsRequest{LocationID: locationID})
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Location *model.SquareLocation `json:"location"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Location, nil
}

func (c *squareClientImpl) ListLocations(ctx context.Context) ([]model.SquareLocation, error) {
	res, err := c.sdk.Locations.List(ctx)
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Locations []model.SquareLocation `json:"locations"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

func (c *squareClientImpl) RetrieveCustomer(ctx context.Context, customerID string) (*model.SquareCustomer, error) {
	res, err := c.sdk.Customers.Get(ctx, &square.GetCustomersRequest{CustomerID: customerID})
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Customer *model.SquareCustomer `json:"customer"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Customer, nil
}

func (c *squareClientImpl) CreateCustomer(ctx context.Context, req *model.SquareCreateCustomerRequest) (*model.SquareCustomer, error) {
	var sdkReq square.CreateCustomerRequest
	if err := convert(req, &sdkReq); err != nil {
		return nil, err
	}

	res, err := c.sdk.Customers.Create(ctx, &sdkReq)
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Customer *model.SquareCustomer `json:"customer"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Customer, nil
}

func (c *squareClientImpl) CreateCard(ctx context.Context, req *model.SquareCreateCardRequest) (*model.SquareCard, error) {
	var sdkReq square.CreateCardRequest
	if err := convert(req, &sdkReq); err != nil {
		return nil, err
	}

	res, err := c.sdk.Cards.Create(ctx, &sdkReq)
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Card *model.SquareCard `json:"card"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Card, nil
}

// ListCards follows the cursor until every card of the customer is read.
func (c *squareClientImpl) ListCards(ctx context.Context, customerID string) ([]model.SquareCard, error) {
	page, err := c.sdk.Cards.List(ctx, &square.ListCardsRequest{CustomerID: square.String(customerID)})
	if err != nil {
		return nil, translateError(err)
	}

	var cards []model.SquareCard
	iter := page.Iterator()
	for iter.Next(ctx) {
		var card model.SquareCard
		if err := convert(iter.Current(), &card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := iter.Err(); err != nil {
		return nil, translateError(err)
	}
	return cards, nil
}

func (c *squareClientImpl) CreatePayment(ctx context.Context, req *model.SquareCreatePaymentRequest) (*model.SquarePayment, error) {
	var sdkReq square.CreatePaymentRequest
	if err := convert(req, &sdkReq); err != nil {
		return nil, err
	}

	res, err := c.sdk.Payments.Create(ctx, &sdkReq)
	if err != nil {
		return nil, translateError(err)
	}
	return decodePayment(res)
}

func (c *squareClientImpl) CompletePayment(ctx context.Context, paymentID string) (*model.SquarePayment, error) {
	res, err := c.sdk.Payments.Complete(ctx, &square.CompletePaymentRequest{PaymentID: paymentID})
	if err != nil {
		return nil, translateError(err)
	}
	return decodePayment(res)
}

func (c *squareClientImpl) CancelPayment(ctx context.Context, paymentID string) (*model.SquarePayment, error) {
	res, err := c.sdk.Payments.Cancel(ctx, &square.CancelPaymentsRequest{PaymentID: paymentID})
	if err != nil {
		return nil, translateError(err)
	}
	return decodePayment(res)
}

func decodePayment(res interface{}) (*model.SquarePayment, error) {
	var out struct {
		Payment *model.SquarePayment `json:"payment"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Payment, nil
}

func (c *squareClientImpl) RefundPayment(ctx context.Context, req *model.SquareRefundPaymentRequest) (*model.SquareRefund, error) {
	var sdkReq square.RefundPaymentRequest
	if err := convert(req, &sdkReq); err != nil {
		return nil, err
	}

	res, err := c.sdk.Refunds.RefundPayment(ctx, &sdkReq)
	if err != nil {
		return nil, translateError(err)
	}

	var out struct {
		Refund *model.SquareRefund `json:"refund"`
	}
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return out.Refund, nil
}
