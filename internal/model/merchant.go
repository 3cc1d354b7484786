package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionMode int

const (
	TransactionModeAuthorize TransactionMode = 1
	TransactionModeCharge    TransactionMode = 2
)

func (m TransactionMode) String() string {
	switch m {
	case TransactionModeAuthorize:
		return "Authorize"
	case TransactionModeCharge:
		return "Charge"
	}
	return "Unknown"
}

// NoLocation is the location id stored when no business location has been
// selected yet.
const NoLocation = "0"

// MerchantCredentials is the resolved configuration of one store.
type MerchantCredentials struct {
	ApplicationID              string
	ApplicationSecret          string
	AccessToken                string
	RefreshToken               string
	UseSandbox                 bool
	VerificationState          string
	VerificationStateCreatedAt *time.Time
	LocationID                 string
	TransactionMode            TransactionMode
	AdditionalFee              decimal.Decimal
	AdditionalFeePercentage    bool
	Use3DS                     bool
}

// HasPartialTokens reports whether exactly one of the access and refresh
// tokens is set.
func (c *MerchantCredentials) HasPartialTokens() bool {
	return (c.AccessToken == "") != (c.RefreshToken == "")
}

// HasLocation reports whether a business location has been selected.
func (c *MerchantCredentials) HasLocation() bool {
	return c.LocationID != "" && c.LocationID != NoLocation
}

// Session returns the pending OAuth authorization, or nil if none.
func (c *MerchantCredentials) Session() *AuthorizationSession {
	if c.VerificationState == "" {
		return nil
	}
	session := &AuthorizationSession{VerificationState: c.VerificationState}
	if c.VerificationStateCreatedAt != nil {
		session.CreatedAt = *c.VerificationStateCreatedAt
	}
	return session
}

type AuthorizationSession struct {
	VerificationState string
	CreatedAt         time.Time
}

// DefaultMerchantCredentials are the values seeded at install time.
func DefaultMerchantCredentials() MerchantCredentials {
	return MerchantCredentials{
		UseSandbox:      true,
		LocationID:      NoLocation,
		TransactionMode: TransactionModeCharge,
		AdditionalFee:   decimal.Zero,
	}
}
