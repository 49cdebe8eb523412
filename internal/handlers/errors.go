package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/models"
)

// respondError maps the service error taxonomy to HTTP statuses: missing
// entities to 404, business-rule violations to 400, capacity rejections to
// 409, processor failures to 502, anything else to 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var nfErr *models.NotFoundError
	var vErr *models.ValidationError
	var capErr *models.CapacityError
	var gwErr *models.GatewayError

	switch {
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{"error": capErr.Error()})
	case errors.As(err, &gwErr):
		logger.WithError(err).Error("Payment gateway failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment processor unavailable"})
	default:
		logger.WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
