package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/config"
	"github.com/ridelink/booking-backend/internal/models"
)

// PaymentGateway abstracts the payment processor. Implementations return the
// processor's native status strings; callers map them to the local taxonomy
// with models.MapProcessorStatus.
type PaymentGateway interface {
	CreateIntent(amountMinorUnits int64, currency string, metadata map[string]string) (intentID, clientSecret string, err error)
	Confirm(intentID, paymentMethodID string) (status string, err error)
	GetStatus(intentID string) (status string, err error)
}

// StripeGateway talks to the Stripe payment intents API over its
// form-encoded REST surface
type StripeGateway struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// stripeIntent is the subset of the payment intent object we read back
type stripeIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

// stripeError is the error envelope the API returns on non-2xx responses
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeGateway creates a new StripeGateway
func NewStripeGateway(cfg *config.PaymentConfig, logger *logrus.Logger) *StripeGateway {
	return &StripeGateway{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// IsConfigured reports whether processor credentials are present
func (s *StripeGateway) IsConfigured() bool {
	return s.config.SecretKey != ""
}

// CreateIntent registers a payment intent with the processor and returns its
// ID plus the client secret the caller needs for client-side confirmation
func (s *StripeGateway) CreateIntent(amountMinorUnits int64, currency string, metadata map[string]string) (string, string, error) {
	if !s.IsConfigured() {
		return "", "", &models.GatewayError{Operation: "create intent", Message: "payment processor not configured: missing secret key"}
	}
	if amountMinorUnits <= 0 {
		return "", "", models.NewValidationError("payment amount must be positive, got %d", amountMinorUnits)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinorUnits, 10))
	form.Set("currency", currency)
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	intent, err := s.post("/payment_intents", form, "create intent")
	if err != nil {
		return "", "", err
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id": intent.ID,
		"amount":    amountMinorUnits,
		"currency":  currency,
	}).Info("Payment intent created")

	return intent.ID, intent.ClientSecret, nil
}

// Confirm submits a payment method against an intent and returns the
// processor's resulting status string
func (s *StripeGateway) Confirm(intentID, paymentMethodID string) (string, error) {
	if !s.IsConfigured() {
		return "", &models.GatewayError{Operation: "confirm", Message: "payment processor not configured: missing secret key"}
	}

	form := url.Values{}
	form.Set("payment_method", paymentMethodID)

	intent, err := s.post("/payment_intents/"+intentID+"/confirm", form, "confirm")
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"intent_id": intentID,
		"status":    intent.Status,
	}).Info("Payment intent confirmed")

	return intent.Status, nil
}

// GetStatus retrieves the processor's current status string for an intent
func (s *StripeGateway) GetStatus(intentID string) (string, error) {
	if !s.IsConfigured() {
		return "", &models.GatewayError{Operation: "get status", Message: "payment processor not configured: missing secret key"}
	}

	req, err := http.NewRequest(http.MethodGet, s.config.APIBaseURL+"/payment_intents/"+intentID, nil)
	if err != nil {
		return "", &models.GatewayError{Operation: "get status", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	intent, err := s.do(req, "get status")
	if err != nil {
		return "", err
	}

	return intent.Status, nil
}

// post sends a form-encoded POST to the given API path
func (s *StripeGateway) post(path string, form url.Values, operation string) (*stripeIntent, error) {
	req, err := http.NewRequest(http.MethodPost, s.config.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &models.GatewayError{Operation: operation, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.do(req, operation)
}

// do executes the request and decodes either an intent or the processor's
// error envelope
func (s *StripeGateway) do(req *http.Request, operation string) (*stripeIntent, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.GatewayError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{Operation: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr stripeError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, &models.GatewayError{Operation: operation, Message: apiErr.Error.Message}
		}
		return nil, &models.GatewayError{Operation: operation, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var intent stripeIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, &models.GatewayError{Operation: operation, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &intent, nil
}
