package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ridelink/booking-backend/internal/models"
)

// PaymentRepository handles database operations for payment attempts.
// Payment rows are append-only apart from status transitions; nothing
// here deletes a row, so the attempt history stays auditable.
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment attempt
func (r *PaymentRepository) Create(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, amount, currency, intent_id, status
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.Amount,
		payment.Currency, payment.IntentID, payment.Status,
	).Scan(&payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by ID. Returns (nil, nil) when no row exists.
func (r *PaymentRepository) GetByID(paymentID string) (*models.Payment, error) {
	query := `
		SELECT id, booking_id, amount, currency, intent_id, status,
		       created_at, paid_at, last_error
		FROM payments
		WHERE id = $1
	`

	payment, err := r.scanPayment(r.db.QueryRow(query, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}

	return payment, nil
}

// GetByBookingID retrieves all payment attempts for a booking, newest first
func (r *PaymentRepository) GetByBookingID(bookingID string) ([]models.Payment, error) {
	query := `
		SELECT id, booking_id, amount, currency, intent_id, status,
		       created_at, paid_at, last_error
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}

// UpdateStatus writes a payment's status. When the new status is succeeded
// the paid_at timestamp is set through COALESCE, so an already-set value is
// never overwritten and repeated success observations keep the first
// timestamp.
func (r *PaymentRepository) UpdateStatus(paymentID string, status models.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $2,
		    paid_at = CASE WHEN $2 = 'succeeded' THEN COALESCE(paid_at, NOW()) ELSE paid_at END
		WHERE id = $1
	`

	result, err := r.db.Exec(query, paymentID, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// SetLastError records why a payment attempt failed
func (r *PaymentRepository) SetLastError(paymentID string, message string) error {
	query := `
		UPDATE payments
		SET last_error = $2
		WHERE id = $1
	`

	_, err := r.db.Exec(query, paymentID, message)
	if err != nil {
		return fmt.Errorf("failed to record payment error: %w", err)
	}

	return nil
}

// ListPendingOlderThan retrieves pending payments created before the cutoff.
// This is the reconciliation sweep's work queue: the grace period keeps
// freshly created intents out until the client has had a chance to confirm.
func (r *PaymentRepository) ListPendingOlderThan(cutoff time.Time) ([]models.Payment, error) {
	query := `
		SELECT id, booking_id, amount, currency, intent_id, status,
		       created_at, paid_at, last_error
		FROM payments
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	return payments, rows.Err()
}

// CountPendingOlderThan reports the sweep backlog size without loading rows
func (r *PaymentRepository) CountPendingOlderThan(cutoff time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM payments WHERE status = 'pending' AND created_at < $1`
	if err := r.db.QueryRow(query, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending payments: %w", err)
	}
	return count, nil
}

// scanPayment scans a single payment with nullable column handling
func (r *PaymentRepository) scanPayment(row scanner) (*models.Payment, error) {
	payment := &models.Payment{}
	var paidAt sql.NullTime
	var lastError sql.NullString

	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.Amount, &payment.Currency,
		&payment.IntentID, &payment.Status, &payment.CreatedAt,
		&paidAt, &lastError,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		payment.PaidAt = &paidAt.Time
	}
	if lastError.Valid {
		payment.LastError = &lastError.String
	}

	return payment, nil
}
