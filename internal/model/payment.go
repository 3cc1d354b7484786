package model

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusAuthorized        PaymentStatus = "Authorized"
	PaymentStatusPaid              PaymentStatus = "Paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "PartiallyRefunded"
	PaymentStatusRefunded          PaymentStatus = "Refunded"
	PaymentStatusVoided            PaymentStatus = "Voided"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "Pending"
	RefundStatusCompleted RefundStatus = "Completed"
	RefundStatusFailed    RefundStatus = "Failed"
)

// PaymentSource selects how a payment is funded: a card already on file, or
// a one-time card nonce that may be saved for later.
type PaymentSource struct {
	StoredCardID string
	CardNonce    string
	SaveCard     bool
}

type PaymentIntent struct {
	StoreID           int
	CustomerID        int64
	OrderID           string
	OrderGUID         string
	OrderTotal        decimal.Decimal
	Source            PaymentSource
	PostalCode        string
	VerificationToken string
}

type PaymentResult struct {
	NewPaymentStatus               PaymentStatus `json:"new_payment_status"`
	ProcessorPaymentID             string        `json:"processor_payment_id"`
	AuthorizationTransactionID     string        `json:"authorization_transaction_id,omitempty"`
	AuthorizationTransactionResult string        `json:"authorization_transaction_result,omitempty"`
	CaptureTransactionID           string        `json:"capture_transaction_id,omitempty"`
	CaptureTransactionResult       string        `json:"capture_transaction_result,omitempty"`
	StoredCardID                   string        `json:"stored_card_id,omitempty"`
}

type RefundRequest struct {
	StoreID        int
	TransactionID  string
	AmountToRefund decimal.Decimal
	CapturedTotal  decimal.Decimal
	// RequireCompleted turns a refund left pending into an error instead of
	// a soft failure.
	RequireCompleted bool
}

type RefundResult struct {
	Status            RefundStatus  `json:"status"`
	ProcessorRefundID string        `json:"processor_refund_id,omitempty"`
	NewPaymentStatus  PaymentStatus `json:"new_payment_status,omitempty"`
	Errors            []string      `json:"errors,omitempty"`
}

// Success reports whether the refund went through.
func (r *RefundResult) Success() bool {
	return r.Status == RefundStatusCompleted
}
