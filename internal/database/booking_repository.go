package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ridelink/booking-backend/internal/models"
)

// BookingRepository handles database operations for bookings and their
// passenger/segment associations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create creates a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, trip_id, user_id, seats, total_amount, status, payment_status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.TripID, booking.UserID, booking.Seats,
		booking.TotalAmount, booking.Status, booking.PaymentStatus,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID. Returns (nil, nil) when no row exists.
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `
		SELECT id, trip_id, user_id, seats, total_amount,
		       status, payment_status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	booking, err := r.scanBooking(r.db.QueryRow(query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := `
		SELECT id, trip_id, user_id, seats, total_amount,
		       status, payment_status, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Update writes the booking's mutable fields
func (r *BookingRepository) Update(booking *models.Booking) error {
	query := `
		UPDATE bookings
		SET seats = $2, total_amount = $3, status = $4,
		    payment_status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		booking.ID, booking.Seats, booking.TotalAmount,
		booking.Status, booking.PaymentStatus,
	).Scan(&booking.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	return nil
}

// UpdateTotalAmount persists a recomputed fare without touching other fields
func (r *BookingRepository) UpdateTotalAmount(bookingID string, total float64) error {
	query := `
		UPDATE bookings
		SET total_amount = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, total)
	if err != nil {
		return fmt.Errorf("failed to update booking total: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// MarkConfirmedPaid flips the booking to confirmed/paid. The payment_status
// guard makes the transition idempotent: the flip happens at most once no
// matter how many refresh/confirm calls race on the same payment.
// Returns true when this call performed the flip.
func (r *BookingRepository) MarkConfirmedPaid(bookingID string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'paid', updated_at = NOW()
		WHERE id = $1 AND payment_status != 'paid'
	`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Cancel flips a pending booking to cancelled. The status guard makes
// double-cancel a no-op so seats are never credited twice, and keeps
// confirmed bookings in their terminal state. Returns true when this call
// performed the transition.
func (r *BookingRepository) Cancel(bookingID string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Delete removes a booking row; passenger and segment associations are
// removed by ON DELETE CASCADE
func (r *BookingRepository) Delete(bookingID string) error {
	result, err := r.db.Exec(`DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// AddPassenger creates a booking passenger association
func (r *BookingRepository) AddPassenger(p *models.BookingPassenger) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO booking_passengers (id, booking_id, user_id, checked_in)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(query, p.ID, p.BookingID, p.UserID, p.CheckedIn)
	if err != nil {
		return fmt.Errorf("failed to add booking passenger: %w", err)
	}

	return nil
}

// AddSegment creates a booking segment association
func (r *BookingRepository) AddSegment(s *models.BookingSegment) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO booking_segments (id, booking_id, segment_id)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(query, s.ID, s.BookingID, s.SegmentID)
	if err != nil {
		return fmt.Errorf("failed to add booking segment: %w", err)
	}

	return nil
}

// GetPassengers retrieves the passenger associations of a booking
func (r *BookingRepository) GetPassengers(bookingID string) ([]models.BookingPassenger, error) {
	query := `
		SELECT id, booking_id, user_id, checked_in
		FROM booking_passengers
		WHERE booking_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking passengers: %w", err)
	}
	defer rows.Close()

	passengers := []models.BookingPassenger{}
	for rows.Next() {
		var p models.BookingPassenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.CheckedIn); err != nil {
			return nil, err
		}
		passengers = append(passengers, p)
	}

	return passengers, rows.Err()
}

// GetSegmentIDs retrieves the segment IDs booked under a booking
func (r *BookingRepository) GetSegmentIDs(bookingID string) ([]string, error) {
	query := `
		SELECT segment_id
		FROM booking_segments
		WHERE booking_id = $1
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking segments: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CheckInAllPassengers flips every passenger of a booking to checked in
func (r *BookingRepository) CheckInAllPassengers(bookingID string) error {
	query := `
		UPDATE booking_passengers
		SET checked_in = TRUE
		WHERE booking_id = $1
	`

	_, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to check in passengers: %w", err)
	}

	return nil
}

// scanBooking scans a single booking
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	err := row.Scan(
		&booking.ID, &booking.TripID, &booking.UserID, &booking.Seats,
		&booking.TotalAmount, &booking.Status, &booking.PaymentStatus,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// scanBookings scans multiple bookings from rows
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID, &booking.TripID, &booking.UserID, &booking.Seats,
			&booking.TotalAmount, &booking.Status, &booking.PaymentStatus,
			&booking.CreatedAt, &booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
