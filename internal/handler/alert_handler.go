package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edutrack-io/internship-api/internal/models"
	"github.com/edutrack-io/internship-api/internal/service"
	"github.com/edutrack-io/internship-api/pkg/response"
)

// AlertHandler exposes alert listing, lifecycle and scan endpoints.
type AlertHandler struct {
	alerts  *service.AlertService
	scanner *service.AlertScannerService
	exports *service.ExportService
}

// NewAlertHandler constructs AlertHandler.
func NewAlertHandler(alerts *service.AlertService, scanner *service.AlertScannerService, exports *service.ExportService) *AlertHandler {
	return &AlertHandler{alerts: alerts, scanner: scanner, exports: exports}
}

// List godoc
// @Summary List alerts
// @Tags Alerts
// @Produce json
// @Param status query string false "Filter by alert status"
// @Param type query string false "Filter by alert type"
// @Param internshipId query string false "Filter by internship"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	filter := alertFilterFromQuery(c)
	alerts, pagination, err := h.alerts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, pagination)
}

// Scan godoc
// @Summary Run the expiration sweep now
// @Tags Alerts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts/scan [post]
func (h *AlertHandler) Scan(c *gin.Context) {
	result, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkRead godoc
// @Summary Mark an alert as read
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id}/read [post]
func (h *AlertHandler) MarkRead(c *gin.Context) {
	alert, err := h.alerts.MarkRead(c.Request.Context(), c.Param("id"), actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Dismiss godoc
// @Summary Dismiss an alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Router /alerts/{id}/dismiss [post]
func (h *AlertHandler) Dismiss(c *gin.Context) {
	alert, err := h.alerts.Dismiss(c.Request.Context(), c.Param("id"), actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

// Export godoc
// @Summary Export alerts as CSV
// @Tags Alerts
// @Produce text/csv
// @Param status query string false "Filter by alert status"
// @Param type query string false "Filter by alert type"
// @Param internshipId query string false "Filter by internship"
// @Success 200 {string} string "CSV payload"
// @Router /alerts/export [get]
func (h *AlertHandler) Export(c *gin.Context) {
	filter := alertFilterFromQuery(c)
	data, filename, err := h.exports.AlertsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func alertFilterFromQuery(c *gin.Context) models.AlertFilter {
	var filter models.AlertFilter
	filter.Status = models.AlertStatus(c.Query("status"))
	filter.Type = models.AlertType(c.Query("type"))
	filter.InternshipID = c.Query("internshipId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
