package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/services"
)

// AdminHandler exposes operational controls for the reconciliation sweep
type AdminHandler struct {
	reconciliation *services.ReconciliationService
	logger         *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(reconciliation *services.ReconciliationService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		reconciliation: reconciliation,
		logger:         logger,
	}
}

// RunSweep triggers a reconciliation pass outside the schedule
// @Summary Run the reconciliation sweep now
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/reconciliation/run [post]
func (h *AdminHandler) RunSweep(c *gin.Context) {
	checked, transitioned, err := h.reconciliation.RunNow()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checked":      checked,
		"transitioned": transitioned,
	})
}

// SweepStatus reports the sweep's schedule and last-run counters
// @Summary Get reconciliation sweep status
// @Tags Admin
// @Produce json
// @Success 200 {object} services.SweepStatus
// @Security BearerAuth
// @Router /api/v1/admin/reconciliation/status [get]
func (h *AdminHandler) SweepStatus(c *gin.Context) {
	status, err := h.reconciliation.Status()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
