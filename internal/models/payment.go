package models

import "time"

// PaymentStatus is the local payment status taxonomy. Every processor-native
// status string is mapped into it through MapProcessorStatus; nothing else in
// the codebase compares processor strings.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// MapProcessorStatus maps the processor's status vocabulary to the local
// taxonomy. Unknown statuses (processing, requires_action, ...) stay Pending
// until the reconciliation sweep observes a terminal state.
func MapProcessorStatus(status string) PaymentStatus {
	switch status {
	case "succeeded":
		return PaymentStatusSucceeded
	case "requires_payment_method":
		return PaymentStatusFailed
	case "canceled":
		return PaymentStatusCanceled
	default:
		return PaymentStatusPending
	}
}

// Payment is one payment attempt tied to exactly one booking. Amount is the
// platform fee, not the full fare; rows are never deleted so the attempt
// history stays auditable.
type Payment struct {
	ID        string        `json:"id" db:"id"`
	BookingID string        `json:"booking_id" db:"booking_id"`
	Amount    float64       `json:"amount" db:"amount"`
	Currency  string        `json:"currency" db:"currency"`
	IntentID  string        `json:"intent_id" db:"intent_id"`
	Status    PaymentStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	PaidAt    *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	LastError *string       `json:"last_error,omitempty" db:"last_error"`
}

// ConfirmPaymentRequest represents the request to confirm a payment with a
// client-collected payment method
type ConfirmPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

// CreatePaymentIntentResponse carries the persisted payment and the client
// secret needed for any client-side confirmation step
type CreatePaymentIntentResponse struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret"`
}
