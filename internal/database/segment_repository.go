package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/ridelink/booking-backend/internal/models"
)

// SegmentRepository handles database operations for route segments
type SegmentRepository struct {
	db DB
}

// NewSegmentRepository creates a new SegmentRepository
func NewSegmentRepository(db DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// GetByID retrieves a segment by ID. Returns (nil, nil) when no row exists.
func (r *SegmentRepository) GetByID(segmentID string) (*models.RouteSegment, error) {
	query := `
		SELECT id, route_id, position, start_stop, end_stop, distance_km
		FROM route_segments
		WHERE id = $1
	`

	segment, err := r.scanSegment(r.db.QueryRow(query, segmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segment: %w", err)
	}

	return segment, nil
}

// ListByIDs retrieves the segments matching the given IDs, in route order.
// IDs with no matching row are simply absent from the result; the caller
// decides how to treat the gap.
func (r *SegmentRepository) ListByIDs(segmentIDs []string) ([]models.RouteSegment, error) {
	if len(segmentIDs) == 0 {
		return []models.RouteSegment{}, nil
	}

	query := `
		SELECT id, route_id, position, start_stop, end_stop, distance_km
		FROM route_segments
		WHERE id = ANY($1)
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, pq.Array(segmentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	segments := []models.RouteSegment{}
	for rows.Next() {
		segment, err := r.scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *segment)
	}

	return segments, rows.Err()
}

// ListByRouteID retrieves every segment of a route in order
func (r *SegmentRepository) ListByRouteID(routeID string) ([]models.RouteSegment, error) {
	query := `
		SELECT id, route_id, position, start_stop, end_stop, distance_km
		FROM route_segments
		WHERE route_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list route segments: %w", err)
	}
	defer rows.Close()

	segments := []models.RouteSegment{}
	for rows.Next() {
		segment, err := r.scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *segment)
	}

	return segments, rows.Err()
}

func (r *SegmentRepository) scanSegment(row scanner) (*models.RouteSegment, error) {
	segment := &models.RouteSegment{}
	var distance sql.NullFloat64

	err := row.Scan(
		&segment.ID, &segment.RouteID, &segment.Position,
		&segment.StartStop, &segment.EndStop, &distance,
	)
	if err != nil {
		return nil, err
	}

	if distance.Valid {
		segment.DistanceKm = &distance.Float64
	}

	return segment, nil
}
