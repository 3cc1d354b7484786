package dto

import (
	"errors"
	"strings"

	"square-payment-gateway/internal/model"
)

var (
	ErrMissingOrder       = errors.New("order_guid is required")
	ErrNonPositiveTotal   = errors.New("order_total must be positive")
	ErrUnknownTransaction = errors.New("transaction_mode must be Authorize or Charge")
)

// ToIntent validates the form and turns it into a payment intent.
func (f *PaymentInfoForm) ToIntent(storeID int) (*model.PaymentIntent, error) {
	if strings.TrimSpace(f.OrderGUID) == "" {
		return nil, ErrMissingOrder
	}
	if !f.OrderTotal.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	return &model.PaymentIntent{
		StoreID:    storeID,
		CustomerID: f.CustomerID,
		OrderID:    f.OrderID,
		OrderGUID:  f.OrderGUID,
		OrderTotal: f.OrderTotal,
		Source: model.PaymentSource{
			StoredCardID: strings.TrimSpace(f.StoredCardID),
			CardNonce:    strings.TrimSpace(f.CardNonce),
			SaveCard:     f.SaveCard,
		},
		PostalCode:        strings.TrimSpace(f.PostalCode),
		VerificationToken: strings.TrimSpace(f.VerificationToken),
	}, nil
}

func ParseTransactionMode(s string) (model.TransactionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "authorize":
		return model.TransactionModeAuthorize, nil
	case "charge":
		return model.TransactionModeCharge, nil
	}
	return 0, ErrUnknownTransaction
}

func NewConfigurationResponse(storeID int, creds *model.MerchantCredentials, overrides []string) ConfigurationResponse {
	return ConfigurationResponse{
		StoreID:                 storeID,
		ApplicationID:           creds.ApplicationID,
		ApplicationSecretSet:    creds.ApplicationSecret != "",
		UseSandbox:              creds.UseSandbox,
		AccessTokenSet:          creds.AccessToken != "",
		RefreshTokenSet:         creds.RefreshToken != "",
		LocationID:              creds.LocationID,
		TransactionMode:         creds.TransactionMode.String(),
		AdditionalFee:           creds.AdditionalFee,
		AdditionalFeePercentage: creds.AdditionalFeePercentage,
		Use3DS:                  creds.Use3DS,
		Overrides:               overrides,
	}
}

func NewStoredCards(cards []model.SquareCard) []StoredCard {
	out := make([]StoredCard, 0, len(cards))
	for _, card := range cards {
		out = append(out, StoredCard{
			ID:       card.ID,
			Brand:    card.CardBrand,
			Last4:    card.Last4,
			ExpMonth: card.ExpMonth,
			ExpYear:  card.ExpYear,
		})
	}
	return out
}

func (r *CustomerRequest) ToModel(customerID int64) *model.Customer {
	return &model.Customer{
		ID:              customerID,
		CustomerGUID:    r.CustomerGUID,
		Email:           r.Email,
		Username:        r.Username,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		Company:         r.Company,
		IsGuest:         r.IsGuest,
		BillingAddress:  r.BillingAddress.toModel(),
		ShippingAddress: r.ShippingAddress.toModel(),
	}
}

func (a *Address) toModel() *model.Address {
	if a == nil {
		return nil
	}
	return &model.Address{
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Email:             a.Email,
		Company:           a.Company,
		Address1:          a.Address1,
		Address2:          a.Address2,
		City:              a.City,
		County:            a.County,
		StateAbbreviation: a.StateAbbreviation,
		CountryCode:       strings.ToUpper(a.CountryCode),
		ZipPostalCode:     a.ZipPostalCode,
	}
}
