package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ridelink/booking-backend/internal/models"
)

// TripRepository handles database operations for the trips table. The seat
// counter mutations are conditional single-statement updates so that the
// check-and-mutate step serializes on the trip row itself.
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetByID retrieves a trip by ID. Returns (nil, nil) when no row exists.
func (r *TripRepository) GetByID(tripID string) (*models.Trip, error) {
	query := `
		SELECT id, route_id, price_per_seat, total_seats, available_seats,
		       status, departure_at, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	trip := &models.Trip{}
	err := r.db.QueryRow(query, tripID).Scan(
		&trip.ID, &trip.RouteID, &trip.PricePerSeat, &trip.TotalSeats,
		&trip.AvailableSeats, &trip.Status, &trip.DepartureAt,
		&trip.CreatedAt, &trip.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trip: %w", err)
	}

	return trip, nil
}

// ReserveSeats atomically deducts seats from a trip's available counter.
// The WHERE clause rejects the update when capacity is insufficient, so no
// intermediate state is ever observable and the counter cannot go negative.
// Returns false when the trip had fewer than seats available (or no row).
func (r *TripRepository) ReserveSeats(tripID string, seats int) (bool, error) {
	query := `
		UPDATE trips
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND available_seats >= $2
	`

	result, err := r.db.Exec(query, tripID, seats)
	if err != nil {
		return false, fmt.Errorf("failed to reserve seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// ReleaseSeats credits seats back to a trip's available counter. Crediting
// never fails on capacity; the total_seats cap is enforced so repeated
// credits cannot inflate the counter past the vehicle size.
func (r *TripRepository) ReleaseSeats(tripID string, seats int) error {
	query := `
		UPDATE trips
		SET available_seats = LEAST(available_seats + $2, total_seats),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, tripID, seats)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("trip not found")
	}

	return nil
}

// Exists reports whether a trip row exists
func (r *TripRepository) Exists(tripID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`, tripID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trip existence: %w", err)
	}
	return exists, nil
}
