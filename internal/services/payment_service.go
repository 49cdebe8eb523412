package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/events"
	"github.com/ridelink/booking-backend/internal/models"
)

// PaymentService handles platform fee collection for bookings: intent
// creation against the processor, confirmation, and status reconciliation.
type PaymentService struct {
	paymentRepo *database.PaymentRepository
	bookingRepo *database.BookingRepository
	segmentRepo *database.SegmentRepository
	gateway     PaymentGateway
	publisher   *events.Publisher
	feePercent  float64
	ratePerKm   float64
	currency    string
	logger      *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	segmentRepo *database.SegmentRepository,
	gateway PaymentGateway,
	publisher *events.Publisher,
	feePercent float64,
	ratePerKm float64,
	currency string,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		segmentRepo: segmentRepo,
		gateway:     gateway,
		publisher:   publisher,
		feePercent:  feePercent,
		ratePerKm:   ratePerKm,
		currency:    currency,
		logger:      logger,
	}
}

// CreateIntent registers a payment intent for a booking's platform fee and
// persists the attempt. The booking stays pending until a success is
// observed through Confirm or the reconciliation sweep.
func (s *PaymentService) CreateIntent(bookingID string) (*models.CreatePaymentIntentResponse, error) {
	// Step 1: Load the booking
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking", bookingID)
	}

	// Step 2: Only live, unpaid bookings can be charged
	if booking.IsCancelled() {
		return nil, models.NewValidationError("cannot pay for a cancelled booking")
	}
	if booking.IsPaid() {
		return nil, models.NewValidationError("booking %s is already paid", bookingID)
	}

	// Step 3: Recompute the fare from current segment distances so the
	// charge reflects the route as it stands now, not at booking time.
	// A booking without segments keeps its stored amount.
	segmentIDs, err := s.bookingRepo.GetSegmentIDs(bookingID)
	if err != nil {
		return nil, err
	}
	if len(segmentIDs) > 0 {
		segments, err := s.segmentRepo.ListByIDs(segmentIDs)
		if err != nil {
			return nil, err
		}
		total, err := ComputeFare(segments, s.ratePerKm, booking.Seats)
		if err != nil {
			return nil, err
		}
		if total != booking.TotalAmount {
			if err := s.bookingRepo.UpdateTotalAmount(bookingID, total); err != nil {
				return nil, err
			}
			booking.TotalAmount = total
		}
	}

	// Step 4: Validate the total and derive the platform fee; a zero fee
	// is a pricing bug, not a free booking
	if booking.TotalAmount <= 0 {
		return nil, models.NewValidationError("booking total must be positive, got %.2f", booking.TotalAmount)
	}
	fee, err := ComputePlatformFee(booking.TotalAmount, s.feePercent)
	if err != nil {
		return nil, err
	}

	// Step 5: Register the intent with the processor; fare and fee travel
	// as metadata for the audit trail
	intentID, clientSecret, err := s.gateway.CreateIntent(ToMinorUnits(fee), s.currency, map[string]string{
		"booking_id": bookingID,
		"fare":       fmt.Sprintf("%.2f", booking.TotalAmount),
		"fee":        fmt.Sprintf("%.2f", fee),
	})
	if err != nil {
		return nil, err
	}

	// Step 6: Persist the attempt as pending
	payment := &models.Payment{
		BookingID: bookingID,
		Amount:    fee,
		Currency:  s.currency,
		IntentID:  intentID,
		Status:    models.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": bookingID,
		"amount":     fee,
		"intent_id":  intentID,
	}).Info("Payment intent created for booking")

	return &models.CreatePaymentIntentResponse{
		Payment:      payment,
		ClientSecret: clientSecret,
	}, nil
}

// Confirm submits a payment method against a payment's intent. A processor
// rejection does not surface as an error: the payment is marked failed with
// the rejection recorded, and the caller gets the failed payment back.
func (s *PaymentService) Confirm(paymentID string, req *models.ConfirmPaymentRequest) (*models.Payment, error) {
	// Step 1: Load the payment
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment", paymentID)
	}

	// Step 2: Confirming a settled payment is a no-op. Failed attempts may
	// retry a new payment method against the same intent.
	if payment.Status == models.PaymentStatusSucceeded || payment.Status == models.PaymentStatusCanceled {
		return payment, nil
	}

	// Step 3: Confirm with the processor. Rejections become a failed
	// payment with the reason on record.
	processorStatus, err := s.gateway.Confirm(payment.IntentID, req.PaymentMethodID)
	if err != nil {
		message := err.Error()
		if updateErr := s.paymentRepo.UpdateStatus(paymentID, models.PaymentStatusFailed); updateErr != nil {
			return nil, updateErr
		}
		if recordErr := s.paymentRepo.SetLastError(paymentID, message); recordErr != nil {
			s.logger.WithError(recordErr).WithField("payment_id", paymentID).
				Error("Failed to record payment error")
		}
		payment.Status = models.PaymentStatusFailed
		payment.LastError = &message

		s.logger.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"error":      message,
		}).Warn("Payment confirmation rejected")

		s.publishPaymentEvent(events.TypePaymentFailed, payment)
		return payment, nil
	}

	// Step 4: Apply the processor's resulting status
	if err := s.applyStatus(payment, models.MapProcessorStatus(processorStatus)); err != nil {
		return nil, err
	}

	return payment, nil
}

// RefreshStatus pulls the processor's current status for a payment and
// applies it locally. This is the single path through which the sweep and
// the manual refresh endpoint converge payments with the processor.
func (s *PaymentService) RefreshStatus(paymentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment", paymentID)
	}

	// The processor is authoritative, so even a locally terminal status is
	// re-read and re-persisted. A payment marked failed here can still
	// settle at the processor when the client completes the intent with the
	// original client secret; refresh is how it converges.
	processorStatus, err := s.gateway.GetStatus(payment.IntentID)
	if err != nil {
		message := err.Error()
		if recordErr := s.paymentRepo.SetLastError(paymentID, message); recordErr != nil {
			s.logger.WithError(recordErr).WithField("payment_id", paymentID).
				Error("Failed to record payment error")
		}
		return nil, err
	}

	if err := s.applyStatus(payment, models.MapProcessorStatus(processorStatus)); err != nil {
		return nil, err
	}

	return payment, nil
}

// GetByID retrieves a payment
func (s *PaymentService) GetByID(paymentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment", paymentID)
	}
	return payment, nil
}

// applyStatus transitions a payment to the observed status. The status row
// is always written, even when unchanged, so a repeated observation leaves
// the same state behind. On success the booking flips to confirmed/paid
// exactly once; the flip side effects (passenger check-in, events) only run
// on the observation that won the flip.
func (s *PaymentService) applyStatus(payment *models.Payment, status models.PaymentStatus) error {
	if err := s.paymentRepo.UpdateStatus(payment.ID, status); err != nil {
		return err
	}
	payment.Status = status

	switch status {
	case models.PaymentStatusSucceeded:
		flipped, err := s.bookingRepo.MarkConfirmedPaid(payment.BookingID)
		if err != nil {
			return err
		}
		if flipped {
			if err := s.bookingRepo.CheckInAllPassengers(payment.BookingID); err != nil {
				s.logger.WithError(err).WithField("booking_id", payment.BookingID).
					Error("Failed to check in passengers")
			}

			s.logger.WithFields(logrus.Fields{
				"payment_id": payment.ID,
				"booking_id": payment.BookingID,
				"amount":     payment.Amount,
			}).Info("Payment succeeded, booking confirmed")

			s.publishPaymentEvent(events.TypePaymentSucceeded, payment)
			s.publisher.Publish(context.Background(), events.Event{
				Type:      events.TypeBookingConfirmed,
				BookingID: payment.BookingID,
			})
		}

	case models.PaymentStatusFailed:
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"booking_id": payment.BookingID,
		}).Warn("Payment failed")
		s.publishPaymentEvent(events.TypePaymentFailed, payment)

	case models.PaymentStatusCanceled:
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"booking_id": payment.BookingID,
		}).Info("Payment canceled at processor")
	}

	return nil
}

func (s *PaymentService) publishPaymentEvent(eventType string, payment *models.Payment) {
	s.publisher.Publish(context.Background(), events.Event{
		Type:      eventType,
		BookingID: payment.BookingID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	})
}
