package model

// Square API v2 wire types. Only the fields the gateway reads or sends are
// modelled.

type SquareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type SquareAddress struct {
	AddressLine1                 string `json:"address_line_1,omitempty"`
	AddressLine2                 string `json:"address_line_2,omitempty"`
	Locality                     string `json:"locality,omitempty"`
	AdministrativeDistrictLevel1 string `json:"administrative_district_level_1,omitempty"`
	AdministrativeDistrictLevel2 string `json:"administrative_district_level_2,omitempty"`
	PostalCode                   string `json:"postal_code,omitempty"`
	Country                      string `json:"country,omitempty"`
	FirstName                    string `json:"first_name,omitempty"`
	LastName                     string `json:"last_name,omitempty"`
}

type SquareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

const (
	LocationStatusActive         = "ACTIVE"
	LocationCapabilityProcessing = "CREDIT_CARD_PROCESSING"
)

type SquareLocation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BusinessName string   `json:"business_name"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
	Currency     string   `json:"currency"`
}

// CanProcessCards reports whether the location is active and enabled for
// credit card processing.
func (l *SquareLocation) CanProcessCards() bool {
	if l == nil || l.Status != LocationStatusActive {
		return false
	}
	for _, c := range l.Capabilities {
		if c == LocationCapabilityProcessing {
			return true
		}
	}
	return false
}

// DisplayName is the business name, followed by the location name when it
// differs.
func (l *SquareLocation) DisplayName() string {
	if l.Name == "" || l.Name == l.BusinessName {
		return l.BusinessName
	}
	return l.BusinessName + " (" + l.Name + ")"
}

type SquareCustomer struct {
	ID           string `json:"id"`
	GivenName    string `json:"given_name,omitempty"`
	FamilyName   string `json:"family_name,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	ReferenceID  string `json:"reference_id,omitempty"`
}

type SquareCreateCustomerRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	GivenName      string `json:"given_name,omitempty"`
	FamilyName     string `json:"family_name,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	EmailAddress   string `json:"email_address,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
}

type SquareCard struct {
	ID             string         `json:"id,omitempty"`
	CustomerID     string         `json:"customer_id,omitempty"`
	CardBrand      string         `json:"card_brand,omitempty"`
	Last4          string         `json:"last_4,omitempty"`
	ExpMonth       int            `json:"exp_month,omitempty"`
	ExpYear        int            `json:"exp_year,omitempty"`
	BillingAddress *SquareAddress `json:"billing_address,omitempty"`
	Enabled        bool           `json:"enabled,omitempty"`
}

type SquareCreateCardRequest struct {
	IdempotencyKey    string     `json:"idempotency_key"`
	SourceID          string     `json:"source_id"`
	VerificationToken string     `json:"verification_token,omitempty"`
	Card              SquareCard `json:"card"`
}

const (
	PaymentStatusApprovedSquare  = "APPROVED"
	PaymentStatusCompletedSquare = "COMPLETED"
	PaymentStatusFailedSquare    = "FAILED"
	PaymentStatusCanceledSquare  = "CANCELED"

	RefundStatusPendingSquare   = "PENDING"
	RefundStatusCompletedSquare = "COMPLETED"
)

type SquareCreatePaymentRequest struct {
	SourceID          string         `json:"source_id"`
	IdempotencyKey    string         `json:"idempotency_key"`
	AmountMoney       SquareMoney    `json:"amount_money"`
	Autocomplete      bool           `json:"autocomplete"`
	CustomerID        string         `json:"customer_id,omitempty"`
	LocationID        string         `json:"location_id,omitempty"`
	ReferenceID       string         `json:"reference_id,omitempty"`
	VerificationToken string         `json:"verification_token,omitempty"`
	BuyerEmailAddress string         `json:"buyer_email_address,omitempty"`
	BillingAddress    *SquareAddress `json:"billing_address,omitempty"`
	ShippingAddress   *SquareAddress `json:"shipping_address,omitempty"`
	Note              string         `json:"note,omitempty"`
	IntegrationID     string         `json:"integration_id,omitempty"`
}

type SquarePayment struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	AmountMoney *SquareMoney `json:"amount_money,omitempty"`
	CustomerID  string       `json:"customer_id,omitempty"`
	LocationID  string       `json:"location_id,omitempty"`
	ReferenceID string       `json:"reference_id,omitempty"`
}

type SquareRefundPaymentRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    SquareMoney `json:"amount_money"`
	PaymentID      string      `json:"payment_id"`
}

type SquareRefund struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	PaymentID   string       `json:"payment_id,omitempty"`
	AmountMoney *SquareMoney `json:"amount_money,omitempty"`
}

// OAuth

type SquareToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"`
	MerchantID   string `json:"merchant_id"`
}
