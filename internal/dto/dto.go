package dto

import (
	"github.com/shopspring/decimal"
)

type ConfigurationResponse struct {
	StoreID                 int             `json:"store_id"`
	ApplicationID           string          `json:"application_id"`
	ApplicationSecretSet    bool            `json:"application_secret_set"`
	UseSandbox              bool            `json:"use_sandbox"`
	AccessTokenSet          bool            `json:"access_token_set"`
	RefreshTokenSet         bool            `json:"refresh_token_set"`
	LocationID              string          `json:"location_id"`
	TransactionMode         string          `json:"transaction_mode"`
	AdditionalFee           decimal.Decimal `json:"additional_fee"`
	AdditionalFeePercentage bool            `json:"additional_fee_percentage"`
	Use3DS                  bool            `json:"use_3ds"`
	Overrides               []string        `json:"overrides,omitempty"`
}

// ConfigurationRequest updates the fields that are set. For a store other
// than the global one, set fields become overrides and the fields named in
// Inherit fall back to the global value.
type ConfigurationRequest struct {
	ApplicationID           *string          `json:"application_id"`
	ApplicationSecret       *string          `json:"application_secret"`
	UseSandbox              *bool            `json:"use_sandbox"`
	AccessToken             *string          `json:"access_token"`
	LocationID              *string          `json:"location_id"`
	TransactionMode         *string          `json:"transaction_mode"`
	AdditionalFee           *decimal.Decimal `json:"additional_fee"`
	AdditionalFeePercentage *bool            `json:"additional_fee_percentage"`
	Use3DS                  *bool            `json:"use_3ds"`
	Inherit                 []string         `json:"inherit"`
}

type AuthorizeURLResponse struct {
	URL string `json:"url"`
}

type LocationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RenewalPeriodRequest struct {
	Days int `json:"days"`
}

// PaymentInfoForm is what the checkout page posts for a card payment.
type PaymentInfoForm struct {
	CustomerID        int64           `json:"customer_id"`
	OrderID           string          `json:"order_id"`
	OrderGUID         string          `json:"order_guid"`
	OrderTotal        decimal.Decimal `json:"order_total"`
	CardNonce         string          `json:"card_nonce"`
	StoredCardID      string          `json:"stored_card_id"`
	SaveCard          bool            `json:"save_card"`
	PostalCode        string          `json:"postal_code"`
	VerificationToken string          `json:"token"`
}

type TransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type RefundRequest struct {
	TransactionID    string          `json:"transaction_id"`
	AmountToRefund   decimal.Decimal `json:"amount_to_refund"`
	CapturedTotal    decimal.Decimal `json:"captured_total"`
	RequireCompleted bool            `json:"require_completed"`
}

type FeeRequest struct {
	Subtotal decimal.Decimal `json:"subtotal"`
}

type FeeResponse struct {
	Fee decimal.Decimal `json:"fee"`
}

type StoredCard struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last_4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type Address struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Company           string `json:"company"`
	Address1          string `json:"address1"`
	Address2          string `json:"address2"`
	City              string `json:"city"`
	County            string `json:"county"`
	StateAbbreviation string `json:"state"`
	CountryCode       string `json:"country_code"`
	ZipPostalCode     string `json:"zip_postal_code"`
}

// CustomerRequest is the platform's snapshot of a customer.
type CustomerRequest struct {
	CustomerGUID    string   `json:"customer_guid"`
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Phone           string   `json:"phone"`
	Company         string   `json:"company"`
	IsGuest         bool     `json:"is_guest"`
	BillingAddress  *Address `json:"billing_address"`
	ShippingAddress *Address `json:"shipping_address"`
}
