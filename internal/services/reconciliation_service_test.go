package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridelink/booking-backend/internal/config"
	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

func newReconciliationService(t *testing.T, gateway PaymentGateway) (*ReconciliationService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &mockDB{db: db}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	paymentRepo := database.NewPaymentRepository(wrapped)
	payments := NewPaymentService(
		paymentRepo,
		database.NewBookingRepository(wrapped),
		database.NewSegmentRepository(wrapped),
		gateway,
		nil,
		0.05,
		1.5,
		"usd",
		logger,
	)

	cfg := config.SweepConfig{Interval: time.Minute, GracePeriod: time.Minute}
	return NewReconciliationService(paymentRepo, payments, cfg, logger), mock
}

func TestRunSweep(t *testing.T) {
	t.Run("Converges Stale Pending Payments", func(t *testing.T) {
		// Two payments in the queue: the first settled at the processor,
		// the second hits a transport failure. The failure must not stop
		// the pass.
		goodID := uuid.New().String()
		badID := uuid.New().String()
		bookingID := uuid.New().String()
		now := time.Now()

		gateway := &fakeGateway{
			getStatusFn: func(intentID string) (string, error) {
				if intentID == "pi_good" {
					return "succeeded", nil
				}
				return "", &models.GatewayError{Operation: "get status", Message: "timeout"}
			},
		}
		svc, mock := newReconciliationService(t, gateway)

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE status = 'pending' AND created_at <`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "amount", "currency", "intent_id", "status",
				"created_at", "paid_at", "last_error",
			}).
				AddRow(goodID, bookingID, 2.45, "usd", "pi_good", "pending", now, nil, nil).
				AddRow(badID, bookingID, 2.45, "usd", "pi_bad", "pending", now, nil, nil))

		// first payment: refresh succeeds and flips the booking
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE id`).
			WithArgs(goodID).
			WillReturnRows(paymentRow(goodID, bookingID, "pi_good", models.PaymentStatusPending))

		mock.ExpectExec(`UPDATE payments SET status`).
			WithArgs(goodID, string(models.PaymentStatusSucceeded)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`UPDATE bookings SET status = 'confirmed', payment_status = 'paid'`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec(`UPDATE booking_passengers SET checked_in`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// second payment: gateway failure leaves a trace and the sweep moves on
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE id`).
			WithArgs(badID).
			WillReturnRows(paymentRow(badID, bookingID, "pi_bad", models.PaymentStatusPending))

		mock.ExpectExec(`UPDATE payments SET last_error`).
			WithArgs(badID, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		checked, transitioned, err := svc.RunNow()
		require.NoError(t, err)
		assert.Equal(t, 2, checked)
		assert.Equal(t, 1, transitioned)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Queue", func(t *testing.T) {
		svc, mock := newReconciliationService(t, &fakeGateway{})

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE status = 'pending' AND created_at <`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "amount", "currency", "intent_id", "status",
				"created_at", "paid_at", "last_error",
			}))

		checked, transitioned, err := svc.RunNow()
		require.NoError(t, err)
		assert.Equal(t, 0, checked)
		assert.Equal(t, 0, transitioned)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status Reports Counters And Backlog", func(t *testing.T) {
		svc, mock := newReconciliationService(t, &fakeGateway{})

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments WHERE status = 'pending'`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		status, err := svc.Status()
		require.NoError(t, err)
		assert.False(t, status.Running)
		assert.Equal(t, 3, status.PendingBacklog)
		assert.Nil(t, status.LastRunAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
