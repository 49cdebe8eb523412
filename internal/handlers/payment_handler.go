package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/models"
	"github.com/ridelink/booking-backend/internal/services"
)

// PaymentHandler handles platform fee payment operations
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// CreateIntent registers a payment intent for a booking's platform fee
// @Summary Create a payment intent for a booking
// @Tags Payments
// @Produce json
// @Param id path string true "Booking ID"
// @Success 201 {object} models.CreatePaymentIntentResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{} "Processor unavailable"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/payments [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	resp, err := h.payments.CreateIntent(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get retrieves a payment
// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Confirm submits a payment method against a payment's intent. A processor
// rejection yields a 200 with the failed payment, not an error status.
// @Summary Confirm a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body models.ConfirmPaymentRequest true "Payment method"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	payment, err := h.payments.Confirm(c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Refresh pulls the processor's current status for a payment
// @Summary Refresh a payment's status from the processor
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{} "Processor unavailable"
// @Security BearerAuth
// @Router /api/v1/payments/{id}/refresh [post]
func (h *PaymentHandler) Refresh(c *gin.Context) {
	payment, err := h.payments.RefreshStatus(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
