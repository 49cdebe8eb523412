package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

// BookingService orchestrates the booking lifecycle: creation with seat
// reservation and fare computation, partial updates, cancellation with seat
// release, and deletion.
type BookingService struct {
	bookingRepo *database.BookingRepository
	tripRepo    *database.TripRepository
	userRepo    *database.UserRepository
	segmentRepo *database.SegmentRepository
	paymentRepo *database.PaymentRepository
	inventory   *SeatInventoryService
	ratePerKm   float64
	logger      *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	tripRepo *database.TripRepository,
	userRepo *database.UserRepository,
	segmentRepo *database.SegmentRepository,
	paymentRepo *database.PaymentRepository,
	inventory *SeatInventoryService,
	ratePerKm float64,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		segmentRepo: segmentRepo,
		paymentRepo: paymentRepo,
		inventory:   inventory,
		ratePerKm:   ratePerKm,
		logger:      logger,
	}
}

// Create creates a booking for the given user.
func (s *BookingService) Create(userID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	// Step 1: Validate the request
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	// Step 2: Load the trip and check it is bookable
	trip, err := s.tripRepo.GetByID(req.TripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, models.NewNotFoundError("trip", req.TripID)
	}
	if !trip.IsBookable() {
		return nil, models.NewValidationError("trip %s is not open for booking", req.TripID)
	}

	bookerExists, err := s.userRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !bookerExists {
		return nil, models.NewNotFoundError("user", userID)
	}

	// Step 3: Resolve segment references. Unresolvable IDs are skipped with
	// a warning rather than failing the booking.
	segments, err := s.resolveSegments(req.SegmentIDs)
	if err != nil {
		return nil, err
	}

	// Step 4: Resolve passenger references, skipping unknown users
	passengerIDs, err := s.resolvePassengers(req.PassengerIDs)
	if err != nil {
		return nil, err
	}

	// Step 5: Compute the fare. With no resolved segments the caller's
	// total is stored as-is.
	total := req.TotalAmount
	if len(segments) > 0 {
		total, err = ComputeFare(segments, s.ratePerKm, req.Seats)
		if err != nil {
			return nil, err
		}
	}

	// Step 6: Reserve seats atomically; CapacityError when the trip is full
	if err := s.inventory.Reserve(req.TripID, req.Seats); err != nil {
		return nil, err
	}

	// Step 7: Persist the booking; release the seats if that fails
	booking := &models.Booking{
		TripID:        req.TripID,
		UserID:        userID,
		Seats:         req.Seats,
		TotalAmount:   total,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.BookingPaymentPending,
	}

	if err := s.bookingRepo.Create(booking); err != nil {
		if releaseErr := s.inventory.Release(req.TripID, req.Seats); releaseErr != nil {
			s.logger.WithError(releaseErr).WithField("trip_id", req.TripID).
				Error("Failed to release seats after booking create failure")
		}
		return nil, err
	}

	// Step 8: Attach passenger and segment associations
	for _, passengerID := range passengerIDs {
		passenger := models.BookingPassenger{BookingID: booking.ID, UserID: passengerID}
		if err := s.bookingRepo.AddPassenger(&passenger); err != nil {
			return nil, err
		}
		booking.Passengers = append(booking.Passengers, passenger)
	}
	for _, segment := range segments {
		assoc := models.BookingSegment{BookingID: booking.ID, SegmentID: segment.ID}
		if err := s.bookingRepo.AddSegment(&assoc); err != nil {
			return nil, err
		}
		booking.Segments = append(booking.Segments, assoc)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"trip_id":    booking.TripID,
		"user_id":    userID,
		"seats":      booking.Seats,
		"total":      booking.TotalAmount,
	}).Info("Booking created")

	return booking, nil
}

// GetByID retrieves a booking with its passengers, segments and payment
// attempts eagerly loaded
func (s *BookingService) GetByID(bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking", bookingID)
	}

	if err := s.loadAssociations(booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// ListByUser retrieves a user's bookings with associations loaded
func (s *BookingService) ListByUser(userID string) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		if err := s.loadAssociations(&bookings[i]); err != nil {
			return nil, err
		}
	}

	return bookings, nil
}

// Update applies a partial patch to a pending booking. Seat changes adjust
// the trip's inventory by the delta; when the booking has segments its fare
// is recomputed, otherwise an explicit total in the patch is stored.
func (s *BookingService) Update(bookingID string, req *models.UpdateBookingRequest) (*models.Booking, error) {
	// Step 1: Validate the patch
	if err := req.Validate(); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	// Step 2: Load the booking and reject updates on settled ones
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking", bookingID)
	}
	if booking.IsCancelled() {
		return nil, models.NewValidationError("cannot update a cancelled booking")
	}
	if booking.IsPaid() {
		return nil, models.NewValidationError("cannot update a paid booking")
	}

	// Step 3: Work out the target seat count and total before touching the
	// trip counter, so a pricing failure leaves inventory untouched
	newSeats := booking.Seats
	if req.Seats != nil {
		newSeats = *req.Seats
	}

	newTotal := booking.TotalAmount
	segmentIDs, err := s.bookingRepo.GetSegmentIDs(bookingID)
	if err != nil {
		return nil, err
	}
	if len(segmentIDs) > 0 {
		segments, err := s.segmentRepo.ListByIDs(segmentIDs)
		if err != nil {
			return nil, err
		}
		newTotal, err = ComputeFare(segments, s.ratePerKm, newSeats)
		if err != nil {
			return nil, err
		}
	} else if req.TotalAmount != nil {
		newTotal = *req.TotalAmount
	}

	// Step 4: Apply the seat change against the trip inventory; a capacity
	// rejection leaves the booking untouched
	oldSeats := booking.Seats
	if newSeats != oldSeats {
		if err := s.inventory.Adjust(booking.TripID, oldSeats, newSeats); err != nil {
			return nil, err
		}
	}
	booking.Seats = newSeats
	booking.TotalAmount = newTotal

	// Step 5: Persist; revert the inventory adjustment if the write fails
	if err := s.bookingRepo.Update(booking); err != nil {
		if newSeats != oldSeats {
			if adjustErr := s.inventory.Adjust(booking.TripID, newSeats, oldSeats); adjustErr != nil {
				s.logger.WithError(adjustErr).WithField("trip_id", booking.TripID).
					Error("Failed to revert seat adjustment after booking update failure")
			}
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"seats":      booking.Seats,
		"total":      booking.TotalAmount,
	}).Info("Booking updated")

	return booking, nil
}

// Cancel moves a pending booking to cancelled and returns its seats to the
// trip. Cancelling an already-cancelled booking is a no-op; the seats are
// only ever released once. Confirmed bookings are terminal and stay put.
func (s *BookingService) Cancel(bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking", bookingID)
	}

	cancelled, err := s.bookingRepo.Cancel(bookingID)
	if err != nil {
		return nil, err
	}

	if !cancelled {
		if booking.IsCancelled() {
			return booking, nil
		}
		return nil, models.NewValidationError("cannot cancel a confirmed booking")
	}

	if err := s.inventory.Release(booking.TripID, booking.Seats); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": bookingID,
			"trip_id":    booking.TripID,
		}).Error("Failed to release seats on cancellation")
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"seats":      booking.Seats,
	}).Info("Booking cancelled")

	booking.Status = models.BookingStatusCancelled
	return booking, nil
}

// Delete removes a booking and its associations from any state. Seats are
// credited back only when the booking was still holding them; a booking
// already cancelled credited its seats at cancellation time.
func (s *BookingService) Delete(bookingID string) error {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return models.NewNotFoundError("booking", bookingID)
	}

	if !booking.IsCancelled() {
		if err := s.inventory.Release(booking.TripID, booking.Seats); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"booking_id": bookingID,
				"trip_id":    booking.TripID,
			}).Error("Failed to release seats on deletion")
		}
	}

	if err := s.bookingRepo.Delete(bookingID); err != nil {
		return err
	}

	s.logger.WithField("booking_id", bookingID).Info("Booking deleted")
	return nil
}

// resolveSegments loads the referenced segments, logging and skipping any
// IDs that do not resolve
func (s *BookingService) resolveSegments(segmentIDs []string) ([]models.RouteSegment, error) {
	if len(segmentIDs) == 0 {
		return nil, nil
	}

	segments, err := s.segmentRepo.ListByIDs(segmentIDs)
	if err != nil {
		return nil, err
	}

	if len(segments) < len(segmentIDs) {
		found := make(map[string]bool, len(segments))
		for _, segment := range segments {
			found[segment.ID] = true
		}
		for _, id := range segmentIDs {
			if !found[id] {
				s.logger.WithField("segment_id", id).Warn("Skipping unknown segment reference")
			}
		}
	}

	return segments, nil
}

// resolvePassengers keeps only passenger IDs that reference existing users
func (s *BookingService) resolvePassengers(passengerIDs []string) ([]string, error) {
	resolved := make([]string, 0, len(passengerIDs))
	for _, id := range passengerIDs {
		exists, err := s.userRepo.Exists(id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve passenger %s: %w", id, err)
		}
		if !exists {
			s.logger.WithField("user_id", id).Warn("Skipping unknown passenger reference")
			continue
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// loadAssociations eagerly attaches passengers, segments and payments
func (s *BookingService) loadAssociations(booking *models.Booking) error {
	passengers, err := s.bookingRepo.GetPassengers(booking.ID)
	if err != nil {
		return err
	}
	booking.Passengers = passengers

	segmentIDs, err := s.bookingRepo.GetSegmentIDs(booking.ID)
	if err != nil {
		return err
	}
	booking.Segments = make([]models.BookingSegment, 0, len(segmentIDs))
	for _, segmentID := range segmentIDs {
		booking.Segments = append(booking.Segments, models.BookingSegment{
			BookingID: booking.ID,
			SegmentID: segmentID,
		})
	}

	payments, err := s.paymentRepo.GetByBookingID(booking.ID)
	if err != nil {
		return err
	}
	booking.Payments = payments

	return nil
}
