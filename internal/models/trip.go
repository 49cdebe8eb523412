package models

import "time"

// TripStatus represents the status of a scheduled trip
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
)

// Trip represents a single scheduled vehicle departure with finite seat capacity.
// AvailableSeats is mutated only through the seat inventory guard and never
// goes negative.
type Trip struct {
	ID             string     `json:"id" db:"id"`
	RouteID        string     `json:"route_id" db:"route_id"`
	PricePerSeat   float64    `json:"price_per_seat" db:"price_per_seat"`
	TotalSeats     int        `json:"total_seats" db:"total_seats"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
	Status         TripStatus `json:"status" db:"status"`
	DepartureAt    time.Time  `json:"departure_at" db:"departure_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether new bookings may be taken against the trip
func (t *Trip) IsBookable() bool {
	return t.Status == TripStatusScheduled
}
