package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

// ReceiptService renders booking receipts as PDF
type ReceiptService struct {
	bookingRepo *database.BookingRepository
	paymentRepo *database.PaymentRepository
	tripRepo    *database.TripRepository
	logger      *logrus.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	bookingRepo *database.BookingRepository,
	paymentRepo *database.PaymentRepository,
	tripRepo *database.TripRepository,
	logger *logrus.Logger,
) *ReceiptService {
	return &ReceiptService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		tripRepo:    tripRepo,
		logger:      logger,
	}
}

// GenerateReceipt renders a PDF receipt for a booking. Only paid bookings
// have a receipt.
func (s *ReceiptService) GenerateReceipt(bookingID string) ([]byte, string, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking == nil {
		return nil, "", models.NewNotFoundError("booking", bookingID)
	}
	if !booking.IsPaid() {
		return nil, "", models.NewValidationError("receipt is only available for paid bookings")
	}

	trip, err := s.tripRepo.GetByID(booking.TripID)
	if err != nil {
		return nil, "", err
	}

	payments, err := s.paymentRepo.GetByBookingID(bookingID)
	if err != nil {
		return nil, "", err
	}

	var paid *models.Payment
	for i := range payments {
		if payments[i].Status == models.PaymentStatusSucceeded {
			paid = &payments[i]
			break
		}
	}

	s.logger.WithField("booking_id", bookingID).Info("Generating booking receipt")

	return buildReceiptPDF(booking, trip, paid)
}

func buildReceiptPDF(booking *models.Booking, trip *models.Trip, paid *models.Payment) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RIDELINK BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking        : %s", booking.ID),
		fmt.Sprintf("Status         : %s", booking.Status),
		fmt.Sprintf("Seats          : %d", booking.Seats),
		fmt.Sprintf("Total Fare     : %.2f", booking.TotalAmount),
	}
	if trip != nil {
		lines = append(lines,
			fmt.Sprintf("Trip           : %s", trip.ID),
			fmt.Sprintf("Departure      : %s", trip.DepartureAt.Format(time.RFC1123)),
		)
	}
	if paid != nil {
		lines = append(lines,
			fmt.Sprintf("Platform Fee   : %.2f %s", paid.Amount, paid.Currency),
			fmt.Sprintf("Payment Ref    : %s", paid.IntentID),
		)
		if paid.PaidAt != nil {
			lines = append(lines, fmt.Sprintf("Paid At        : %s", paid.PaidAt.Format(time.RFC1123)))
		}
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "The platform fee shown above was collected by RideLink; the remaining fare settles directly with the operator.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s.pdf", booking.ID)
	return buf.Bytes(), filename, nil
}
