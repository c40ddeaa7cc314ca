package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edutrack-io/internship-api/internal/service"
	"github.com/edutrack-io/internship-api/pkg/response"
)

// CertificateHandler exposes certificate eligibility checks.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Eligibility godoc
// @Summary Evaluate certificate eligibility for an internship
// @Tags Certificates
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/certificate-eligibility [get]
func (h *CertificateHandler) Eligibility(c *gin.Context) {
	eligibility, err := h.certificates.EvaluateByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligibility, nil)
}
