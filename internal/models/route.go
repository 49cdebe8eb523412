package models

import "time"

// Route represents a named path between two cities
type Route struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	OriginCity      string    `json:"origin_city" db:"origin_city"`
	DestinationCity string    `json:"destination_city" db:"destination_city"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// RouteSegment is a distance-bearing leg of a route. DistanceKm is nullable
// for legs whose distance has not been surveyed yet; fare computation treats
// a missing distance as zero.
type RouteSegment struct {
	ID         string   `json:"id" db:"id"`
	RouteID    string   `json:"route_id" db:"route_id"`
	Position   int      `json:"position" db:"position"`
	StartStop  string   `json:"start_stop" db:"start_stop"`
	EndStop    string   `json:"end_stop" db:"end_stop"`
	DistanceKm *float64 `json:"distance_km,omitempty" db:"distance_km"`
}
