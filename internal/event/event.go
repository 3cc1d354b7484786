package event

import (
	"context"
	"time"
)

const (
	TypePaymentAuthorized = "payment.authorized"
	TypePaymentPaid       = "payment.paid"
	TypePaymentPending    = "payment.pending"
	TypePaymentVoided     = "payment.voided"
	TypePaymentRefunded   = "payment.refunded"
	TypeTokenObtained     = "oauth.token_obtained"
	TypeTokenRenewed      = "oauth.token_renewed"
	TypeTokenRevoked      = "oauth.token_revoked"
)

type PaymentEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	StoreID    int       `json:"store_id"`
	OrderID    string    `json:"order_id,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	RefundID   string    `json:"refund_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev PaymentEvent) error
}

type nopPublisher struct{}

func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, PaymentEvent) error { return nil }
