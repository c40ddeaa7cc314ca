package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/edutrack-io/internship-api/internal/dto"
	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

type internshipReader interface {
	FindByID(ctx context.Context, id string) (*models.Internship, error)
}

// CertificateService decides whether an internship qualifies for certificate
// generation. The evaluation itself is pure; the external document renderer
// consumes the verdict.
type CertificateService struct {
	internships internshipReader
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(internships internshipReader) *CertificateService {
	return &CertificateService{internships: internships}
}

// EvaluateByID loads the internship and evaluates its eligibility.
func (s *CertificateService) EvaluateByID(ctx context.Context, id string) (*dto.CertificateEligibility, error) {
	internship, err := s.internships.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	result := Evaluate(*internship)
	return &result, nil
}

// Evaluate checks every blocker independently so the caller can surface all
// of them at once. The internship is eligible iff no reason applies.
func Evaluate(internship models.Internship) dto.CertificateEligibility {
	reasons := make([]dto.BlockingReason, 0, 4)

	if internship.Status != models.InternshipStatusCompleted {
		reasons = append(reasons, dto.ReasonNotCompleted)
	}
	if internship.RequiredWorkloadHours != nil && internship.PartialWorkloadHours < *internship.RequiredWorkloadHours {
		reasons = append(reasons, dto.ReasonWorkloadNotMet)
	}
	if internship.AdvisorID == nil || *internship.AdvisorID == "" {
		reasons = append(reasons, dto.ReasonAdvisorMissing)
	}
	if internship.Kind == models.InternshipKindMandatory && !internship.ReportFlags.Completed() {
		reasons = append(reasons, dto.ReasonReportsIncomplete)
	}

	return dto.CertificateEligibility{
		InternshipID: internship.ID,
		Eligible:     len(reasons) == 0,
		Reasons:      reasons,
	}
}
