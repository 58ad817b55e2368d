package models

import "time"

// PaymentRequestStatus represents the state of a P2P payment request
type PaymentRequestStatus string

const (
	PaymentRequestCreated   PaymentRequestStatus = "CREATED"
	PaymentRequestCompleted PaymentRequestStatus = "COMPLETED"
	PaymentRequestExpired   PaymentRequestStatus = "EXPIRED"
)

// PaymentRequestTTL is how long a request stays payable before it expires.
const PaymentRequestTTL = 24 * time.Hour

// PaymentRequest represents a P2P payment request between two users
type PaymentRequest struct {
	ID          string               `json:"id"`
	PayerID     int64                `json:"payer_id"`
	RecipientID int64                `json:"recipient_id"`
	AmountToken uint64               `json:"amount_token"`
	Status      PaymentRequestStatus `json:"status"`
	ExpiresAt   time.Time            `json:"expires_at"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Expired reports whether the request can no longer be paid.
func (r *PaymentRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
