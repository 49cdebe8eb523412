package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

// SeatInventoryService guards the per-trip seat counters. All seat counter
// traffic funnels through here so booking, cancellation and seat patches
// share the same reservation semantics.
type SeatInventoryService struct {
	tripRepo *database.TripRepository
	logger   *logrus.Logger
}

// NewSeatInventoryService creates a new SeatInventoryService
func NewSeatInventoryService(tripRepo *database.TripRepository, logger *logrus.Logger) *SeatInventoryService {
	return &SeatInventoryService{
		tripRepo: tripRepo,
		logger:   logger,
	}
}

// Reserve deducts seats from a trip. Returns CapacityError when the trip
// does not have that many seats left; the counter is untouched in that case.
func (s *SeatInventoryService) Reserve(tripID string, seats int) error {
	if seats <= 0 {
		return models.NewValidationError("seat count must be positive, got %d", seats)
	}

	ok, err := s.tripRepo.ReserveSeats(tripID, seats)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if !ok {
		return &models.CapacityError{TripID: tripID, Requested: seats}
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seats":   seats,
	}).Debug("Seats reserved")

	return nil
}

// Release credits seats back to a trip. Crediting never fails on capacity.
func (s *SeatInventoryService) Release(tripID string, seats int) error {
	if seats <= 0 {
		return models.NewValidationError("seat count must be positive, got %d", seats)
	}

	if err := s.tripRepo.ReleaseSeats(tripID, seats); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"seats":   seats,
	}).Debug("Seats released")

	return nil
}

// Adjust moves the counter by the difference between an old and new seat
// count. A growing booking reserves the delta (and can fail on capacity);
// a shrinking one releases it.
func (s *SeatInventoryService) Adjust(tripID string, oldSeats, newSeats int) error {
	switch {
	case newSeats > oldSeats:
		return s.Reserve(tripID, newSeats-oldSeats)
	case newSeats < oldSeats:
		return s.Release(tripID, oldSeats-newSeats)
	default:
		return nil
	}
}
