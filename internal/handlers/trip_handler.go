package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/database"
	"github.com/ridelink/booking-backend/internal/models"
)

// TripHandler handles trip lookups
type TripHandler struct {
	tripRepo    *database.TripRepository
	segmentRepo *database.SegmentRepository
	logger      *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripRepo *database.TripRepository, segmentRepo *database.SegmentRepository, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		tripRepo:    tripRepo,
		segmentRepo: segmentRepo,
		logger:      logger,
	}
}

// Get retrieves a trip with its live seat availability
// @Summary Get a trip
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {object} models.Trip
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/trips/{id} [get]
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if trip == nil {
		respondError(c, h.logger, models.NewNotFoundError("trip", c.Param("id")))
		return
	}

	c.JSON(http.StatusOK, trip)
}

// Segments retrieves the segments of a trip's route in order
// @Summary List a trip's route segments
// @Tags Trips
// @Produce json
// @Param id path string true "Trip ID"
// @Success 200 {array} models.RouteSegment
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/trips/{id}/segments [get]
func (h *TripHandler) Segments(c *gin.Context) {
	trip, err := h.tripRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if trip == nil {
		respondError(c, h.logger, models.NewNotFoundError("trip", c.Param("id")))
		return
	}

	segments, err := h.segmentRepo.ListByRouteID(trip.RouteID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"segments": segments, "count": len(segments)})
}
