package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &mockDB{db: db}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tripRepo := database.NewTripRepository(wrapped)
	svc := NewBookingService(
		database.NewBookingRepository(wrapped),
		tripRepo,
		database.NewUserRepository(wrapped),
		database.NewSegmentRepository(wrapped),
		database.NewPaymentRepository(wrapped),
		NewSeatInventoryService(tripRepo, logger),
		1.5,
		logger,
	)

	return svc, mock
}

func tripRow(id string, status models.TripStatus, available int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "route_id", "price_per_seat", "total_seats", "available_seats",
		"status", "departure_at", "created_at", "updated_at",
	}).AddRow(id, uuid.New().String(), 24.50, 40, available, string(status), now.Add(24*time.Hour), now, now)
}

func TestCreateBooking(t *testing.T) {
	t.Run("Success Without Segments", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, models.TripStatusScheduled, 10))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectExec(`UPDATE trips SET available_seats = available_seats -`).
			WithArgs(tripID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(sqlmock.AnyArg(), tripID, userID, 2, 49.0,
				string(models.BookingStatusPending), string(models.BookingPaymentPending)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		booking, err := svc.Create(userID, &models.CreateBookingRequest{
			TripID:      tripID,
			Seats:       2,
			TotalAmount: 49.0,
		})
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Equal(t, models.BookingPaymentPending, booking.PaymentStatus)
		assert.Equal(t, 49.0, booking.TotalAmount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fare Computed From Segments", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()
		userID := uuid.New().String()
		segmentID := uuid.New().String()
		routeID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, models.TripStatusScheduled, 10))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery(`SELECT (.+) FROM route_segments WHERE id = ANY`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "position", "start_stop", "end_stop", "distance_km",
			}).AddRow(segmentID, routeID, 1, "Central", "Harbor", 12.0))

		mock.ExpectExec(`UPDATE trips SET available_seats = available_seats -`).
			WithArgs(tripID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		now := time.Now()
		// 12.0 km * 1.5 rate * 2 seats = 36.00, overrides the caller's total
		mock.ExpectQuery(`INSERT INTO bookings`).
			WithArgs(sqlmock.AnyArg(), tripID, userID, 2, 36.0,
				string(models.BookingStatusPending), string(models.BookingPaymentPending)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		mock.ExpectExec(`INSERT INTO booking_segments`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), segmentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.Create(userID, &models.CreateBookingRequest{
			TripID:      tripID,
			Seats:       2,
			SegmentIDs:  []string{segmentID},
			TotalAmount: 999.0,
		})
		require.NoError(t, err)
		assert.Equal(t, 36.0, booking.TotalAmount)
		assert.Len(t, booking.Segments, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Capacity Exceeded", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, models.TripStatusScheduled, 1))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectExec(`UPDATE trips SET available_seats = available_seats -`).
			WithArgs(tripID, 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.Create(userID, &models.CreateBookingRequest{
			TripID:      tripID,
			Seats:       5,
			TotalAmount: 100.0,
		})
		require.Error(t, err)

		var capErr *models.CapacityError
		require.True(t, errors.As(err, &capErr))
		assert.Equal(t, 5, capErr.Requested)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Trip Not Found", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "price_per_seat", "total_seats", "available_seats",
				"status", "departure_at", "created_at", "updated_at",
			}))

		_, err := svc.Create(uuid.New().String(), &models.CreateBookingRequest{
			TripID:      tripID,
			Seats:       1,
			TotalAmount: 10.0,
		})
		require.Error(t, err)

		var nfErr *models.NotFoundError
		assert.True(t, errors.As(err, &nfErr))
	})

	t.Run("Completed Trip Rejected", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, models.TripStatusCompleted, 10))

		_, err := svc.Create(uuid.New().String(), &models.CreateBookingRequest{
			TripID:      tripID,
			Seats:       1,
			TotalAmount: 10.0,
		})
		require.Error(t, err)

		var vErr *models.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("Unknown Passenger Skipped", func(t *testing.T) {
		svc, mock := newBookingService(t)
		tripID := uuid.New().String()
		userID := uuid.New().String()
		knownID := uuid.New().String()
		unknownID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id`).
			WithArgs(tripID).
			WillReturnRows(tripRow(tripID, models.TripStatusScheduled, 10))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(knownID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id`).
			WithArgs(unknownID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		mock.ExpectExec(`UPDATE trips SET available_seats = available_seats -`).
			WithArgs(tripID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		mock.ExpectExec(`INSERT INTO booking_passengers`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), knownID, false).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.Create(userID, &models.CreateBookingRequest{
			TripID:       tripID,
			Seats:        2,
			PassengerIDs: []string{knownID, unknownID},
			TotalAmount:  49.0,
		})
		require.NoError(t, err)
		require.Len(t, booking.Passengers, 1)
		assert.Equal(t, knownID, booking.Passengers[0].UserID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBooking(t *testing.T) {
	t.Run("Seat Increase Recomputes Fare And Reserves Delta", func(t *testing.T) {
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		segmentID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 2, 36.0, "pending", "pending", now, now))

		mock.ExpectQuery(`SELECT segment_id FROM booking_segments`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"segment_id"}).AddRow(segmentID))

		mock.ExpectQuery(`SELECT (.+) FROM route_segments WHERE id = ANY`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "position", "start_stop", "end_stop", "distance_km",
			}).AddRow(segmentID, uuid.New().String(), 1, "Central", "Harbor", 12.0))

		mock.ExpectExec(`UPDATE trips SET available_seats = available_seats -`).
			WithArgs(tripID, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// 12.0 km * 1.5 rate * 3 seats = 54.00
		mock.ExpectQuery(`UPDATE bookings SET seats`).
			WithArgs(bookingID, 3, 54.0, "pending", "pending").
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		seats := 3
		booking, err := svc.Update(bookingID, &models.UpdateBookingRequest{Seats: &seats})
		require.NoError(t, err)
		assert.Equal(t, 3, booking.Seats)
		assert.Equal(t, 54.0, booking.TotalAmount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fare Failure Leaves Inventory Untouched", func(t *testing.T) {
		// A segment without a surveyed distance makes the booking
		// unpriceable; the rejection must happen before any seat delta
		// reaches the trip counter.
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		segmentID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 2, 36.0, "pending", "pending", now, now))

		mock.ExpectQuery(`SELECT segment_id FROM booking_segments`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"segment_id"}).AddRow(segmentID))

		mock.ExpectQuery(`SELECT (.+) FROM route_segments WHERE id = ANY`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "position", "start_stop", "end_stop", "distance_km",
			}).AddRow(segmentID, uuid.New().String(), 1, "Central", "Harbor", nil))

		seats := 3
		_, err := svc.Update(bookingID, &models.UpdateBookingRequest{Seats: &seats})
		require.Error(t, err)

		var vErr *models.ValidationError
		assert.True(t, errors.As(err, &vErr))

		// no trips or bookings write was ever issued
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("Cancel Releases Seats", func(t *testing.T) {
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 3, 49.0, "pending", "pending", now, now))

		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`UPDATE trips SET available_seats = LEAST`).
			WithArgs(tripID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking, err := svc.Cancel(bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Double Cancel Does Not Release Again", func(t *testing.T) {
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 3, 49.0, "cancelled", "pending", now, now))

		// Guarded update matches no row, so no seat release follows
		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		booking, err := svc.Cancel(bookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Confirmed Booking Cannot Be Cancelled", func(t *testing.T) {
		// Confirmed is terminal; the guard leaves the row alone and no
		// seats come back.
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 3, 49.0, "confirmed", "paid", now, now))

		mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.Cancel(bookingID)
		require.Error(t, err)

		var vErr *models.ValidationError
		assert.True(t, errors.As(err, &vErr))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteBooking(t *testing.T) {
	t.Run("Deleting A Live Booking Credits Seats", func(t *testing.T) {
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		tripID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, tripID, uuid.New().String(), 2, 49.0, "pending", "pending", now, now))

		mock.ExpectExec(`UPDATE trips SET available_seats = LEAST`).
			WithArgs(tripID, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`DELETE FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := svc.Delete(bookingID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleting A Cancelled Booking Credits Nothing", func(t *testing.T) {
		// Cancellation already returned the seats; delete must not credit
		// them a second time.
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}).AddRow(bookingID, uuid.New().String(), uuid.New().String(), 2, 49.0, "cancelled", "pending", now, now))

		mock.ExpectExec(`DELETE FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := svc.Delete(bookingID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Booking", func(t *testing.T) {
		svc, mock := newBookingService(t)
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "trip_id", "user_id", "seats", "total_amount",
				"status", "payment_status", "created_at", "updated_at",
			}))

		err := svc.Delete(bookingID)
		require.Error(t, err)

		var nfErr *models.NotFoundError
		assert.True(t, errors.As(err, &nfErr))
	})
}
