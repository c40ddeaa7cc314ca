package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edutrack-io/internship-api/internal/models"
	"github.com/edutrack-io/internship-api/internal/service"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
	"github.com/edutrack-io/internship-api/pkg/response"
)

// InternshipHandler exposes internship lifecycle endpoints.
type InternshipHandler struct {
	internships *service.InternshipService
}

// NewInternshipHandler constructs InternshipHandler.
func NewInternshipHandler(internships *service.InternshipService) *InternshipHandler {
	return &InternshipHandler{internships: internships}
}

// List godoc
// @Summary List internships
// @Tags Internships
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param kind query string false "Filter by kind"
// @Param studentId query string false "Filter by student"
// @Param advisorId query string false "Filter by advisor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /internships [get]
func (h *InternshipHandler) List(c *gin.Context) {
	var filter models.InternshipFilter
	filter.Status = models.InternshipStatus(c.Query("status"))
	filter.Kind = models.InternshipKind(c.Query("kind"))
	filter.StudentID = c.Query("studentId")
	filter.AdvisorID = c.Query("advisorId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	internships, pagination, err := h.internships.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internships, pagination)
}

// Get godoc
// @Summary Get internship detail
// @Tags Internships
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id} [get]
func (h *InternshipHandler) Get(c *gin.Context) {
	internship, err := h.internships.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// Create godoc
// @Summary Register a new internship
// @Tags Internships
// @Accept json
// @Produce json
// @Param payload body service.CreateInternshipRequest true "Internship payload"
// @Success 201 {object} response.Envelope
// @Router /internships [post]
func (h *InternshipHandler) Create(c *gin.Context) {
	var req service.CreateInternshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	internship, err := h.internships.Create(c.Request.Context(), req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, internship)
}

// UpdateWorkload godoc
// @Summary Update partial workload hours
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Param payload body service.UpdateWorkloadRequest true "Absolute hours or delta"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/workload [put]
func (h *InternshipHandler) UpdateWorkload(c *gin.Context) {
	var req service.UpdateWorkloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	internship, err := h.internships.UpdateWorkload(c.Request.Context(), c.Param("id"), req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// RecordReport godoc
// @Summary Attach or detach a progress report
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Param index path int true "Report slot, 1 through 10"
// @Param payload body service.RecordReportRequest true "Report flag"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/reports/{index} [put]
func (h *InternshipHandler) RecordReport(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "report index must be a number"))
		return
	}
	var req service.RecordReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	internship, err := h.internships.RecordReport(c.Request.Context(), c.Param("id"), index, req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// Transition godoc
// @Summary Move an internship to a new lifecycle status
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Param payload body service.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/status [put]
func (h *InternshipHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	internship, err := h.internships.Transition(c.Request.Context(), c.Param("id"), req, actorIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}
