package models

import (
	"errors"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingPaymentStatus represents whether the platform fee has been collected
type BookingPaymentStatus string

const (
	BookingPaymentPending BookingPaymentStatus = "pending"
	BookingPaymentPaid    BookingPaymentStatus = "paid"
)

// Booking represents a reservation of seats on one trip by one user
type Booking struct {
	ID            string               `json:"id" db:"id"`
	TripID        string               `json:"trip_id" db:"trip_id"`
	UserID        string               `json:"user_id" db:"user_id"`
	Seats         int                  `json:"seats" db:"seats"`
	TotalAmount   float64              `json:"total_amount" db:"total_amount"`
	Status        BookingStatus        `json:"status" db:"status"`
	PaymentStatus BookingPaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`

	// Eager-loaded associations (list/detail responses only)
	Passengers []BookingPassenger `json:"passengers,omitempty" db:"-"`
	Segments   []BookingSegment   `json:"segments,omitempty" db:"-"`
	Payments   []Payment          `json:"payments,omitempty" db:"-"`
}

// BookingPassenger associates a travelling user with a booking
type BookingPassenger struct {
	ID        string `json:"id" db:"id"`
	BookingID string `json:"booking_id" db:"booking_id"`
	UserID    string `json:"user_id" db:"user_id"`
	CheckedIn bool   `json:"checked_in" db:"checked_in"`
}

// BookingSegment associates a booking with a route segment it travels.
// Immutable once created; removed with its booking.
type BookingSegment struct {
	ID        string `json:"id" db:"id"`
	BookingID string `json:"booking_id" db:"booking_id"`
	SegmentID string `json:"segment_id" db:"segment_id"`
}

// CreateBookingRequest represents the request to create a booking.
// TotalAmount is a caller-supplied placeholder used only when no segments
// are booked; otherwise the fare is computed from segment distances.
type CreateBookingRequest struct {
	TripID       string   `json:"trip_id" binding:"required"`
	Seats        int      `json:"seats" binding:"required,min=1"`
	SegmentIDs   []string `json:"segment_ids"`
	PassengerIDs []string `json:"passenger_ids"`
	TotalAmount  float64  `json:"total_amount"`
}

// UpdateBookingRequest is a partial patch; nil fields are left untouched
type UpdateBookingRequest struct {
	Seats       *int     `json:"seats,omitempty"`
	TotalAmount *float64 `json:"total_amount,omitempty"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate() error {
	if r.Seats <= 0 {
		return errors.New("seats must be at least 1")
	}
	if r.Seats > 10 {
		return errors.New("maximum 10 seats can be booked at once")
	}
	if len(r.SegmentIDs) == 0 && r.TotalAmount < 0 {
		return errors.New("total_amount cannot be negative")
	}
	return nil
}

// Validate validates the patch
func (r *UpdateBookingRequest) Validate() error {
	if r.Seats != nil && *r.Seats <= 0 {
		return errors.New("seats must be at least 1")
	}
	if r.TotalAmount != nil && *r.TotalAmount < 0 {
		return errors.New("total_amount cannot be negative")
	}
	return nil
}

// IsCancelled reports whether the booking is in the terminal cancelled state
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// IsPaid reports whether the platform fee has been collected
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == BookingPaymentPaid
}
