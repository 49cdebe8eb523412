package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridelink/booking-backend/internal/config"
	"github.com/ridelink/booking-backend/internal/models"
)

func testGateway(t *testing.T, handler http.HandlerFunc) (*StripeGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gateway := NewStripeGateway(&config.PaymentConfig{
		APIBaseURL: server.URL,
		SecretKey:  "sk_test_123",
		Timeout:    5 * time.Second,
	}, logger)

	return gateway, server
}

func TestStripeGatewayCreateIntent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/payment_intents", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "245", r.PostForm.Get("amount"))
			assert.Equal(t, "usd", r.PostForm.Get("currency"))
			assert.Equal(t, "b-1", r.PostForm.Get("metadata[booking_id]"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"pi_123","status":"requires_payment_method","client_secret":"pi_123_secret"}`))
		})

		intentID, clientSecret, err := gateway.CreateIntent(245, "usd", map[string]string{"booking_id": "b-1"})
		require.NoError(t, err)
		assert.Equal(t, "pi_123", intentID)
		assert.Equal(t, "pi_123_secret", clientSecret)
	})

	t.Run("API Error Becomes GatewayError", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
		})

		_, _, err := gateway.CreateIntent(245, "usd", nil)
		require.Error(t, err)

		var gwErr *models.GatewayError
		require.True(t, errors.As(err, &gwErr))
		assert.Contains(t, gwErr.Message, "declined")
	})

	t.Run("Non-Positive Amount Rejected Locally", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request should reach the processor")
		})

		_, _, err := gateway.CreateIntent(0, "usd", nil)
		require.Error(t, err)

		var vErr *models.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("Missing Secret Key", func(t *testing.T) {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		gateway := NewStripeGateway(&config.PaymentConfig{Timeout: time.Second}, logger)

		_, _, err := gateway.CreateIntent(245, "usd", nil)
		require.Error(t, err)

		var gwErr *models.GatewayError
		assert.True(t, errors.As(err, &gwErr))
	})
}

func TestStripeGatewayConfirm(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment_intents/pi_123/confirm", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "pm_card", r.PostForm.Get("payment_method"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"pi_123","status":"succeeded"}`))
		})

		status, err := gateway.Confirm("pi_123", "pm_card")
		require.NoError(t, err)
		assert.Equal(t, "succeeded", status)
	})

	t.Run("Declined Card", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
		})

		_, err := gateway.Confirm("pi_123", "pm_card")
		require.Error(t, err)

		var gwErr *models.GatewayError
		assert.True(t, errors.As(err, &gwErr))
	})
}

func TestStripeGatewayGetStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gateway, _ := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/payment_intents/pi_123", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"pi_123","status":"processing"}`))
		})

		status, err := gateway.GetStatus("pi_123")
		require.NoError(t, err)
		assert.Equal(t, "processing", status)
	})

	t.Run("Transport Failure", func(t *testing.T) {
		gateway, server := testGateway(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := gateway.GetStatus("pi_123")
		require.Error(t, err)

		var gwErr *models.GatewayError
		assert.True(t, errors.As(err, &gwErr))
	})
}

func TestMapProcessorStatus(t *testing.T) {
	assert.Equal(t, models.PaymentStatusSucceeded, models.MapProcessorStatus("succeeded"))
	assert.Equal(t, models.PaymentStatusFailed, models.MapProcessorStatus("requires_payment_method"))
	assert.Equal(t, models.PaymentStatusCanceled, models.MapProcessorStatus("canceled"))
	assert.Equal(t, models.PaymentStatusPending, models.MapProcessorStatus("processing"))
	assert.Equal(t, models.PaymentStatusPending, models.MapProcessorStatus("requires_action"))
	assert.Equal(t, models.PaymentStatusPending, models.MapProcessorStatus("something_new"))
}
