package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack-io/internship-api/internal/dto"
	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

func eligibleInternship() models.Internship {
	required := models.MandatoryWorkloadHours
	internship := models.Internship{
		ID:                    "i-1",
		Kind:                  models.InternshipKindMandatory,
		StudentID:             "student-1",
		AdvisorID:             strRef("advisor-1"),
		Status:                models.InternshipStatusCompleted,
		PartialWorkloadHours:  models.MandatoryWorkloadHours,
		RequiredWorkloadHours: &required,
	}
	for i := 1; i <= models.ReportCount; i++ {
		internship.ReportFlags.Set(i, true)
	}
	return internship
}

func TestEvaluateEligible(t *testing.T) {
	verdict := Evaluate(eligibleInternship())
	assert.True(t, verdict.Eligible)
	assert.Empty(t, verdict.Reasons)
	assert.Equal(t, "i-1", verdict.InternshipID)
}

func TestEvaluateCollectsAllReasons(t *testing.T) {
	internship := eligibleInternship()
	internship.Status = models.InternshipStatusActive
	internship.PartialWorkloadHours = 100
	internship.AdvisorID = nil
	internship.ReportFlags = models.ReportFlags{}

	verdict := Evaluate(internship)
	assert.False(t, verdict.Eligible)
	assert.ElementsMatch(t, []dto.BlockingReason{
		dto.ReasonNotCompleted,
		dto.ReasonWorkloadNotMet,
		dto.ReasonAdvisorMissing,
		dto.ReasonReportsIncomplete,
	}, verdict.Reasons)
}

func TestEvaluateReportsOnlyBlockMandatory(t *testing.T) {
	internship := eligibleInternship()
	internship.Kind = models.InternshipKindNonMandatory
	internship.ReportFlags = models.ReportFlags{}

	verdict := Evaluate(internship)
	assert.True(t, verdict.Eligible)

	internship.Kind = models.InternshipKindMandatory
	verdict = Evaluate(internship)
	assert.False(t, verdict.Eligible)
	assert.Equal(t, []dto.BlockingReason{dto.ReasonReportsIncomplete}, verdict.Reasons)
}

func TestEvaluateEmptyAdvisorCountsAsMissing(t *testing.T) {
	internship := eligibleInternship()
	internship.AdvisorID = strRef("")

	verdict := Evaluate(internship)
	assert.False(t, verdict.Eligible)
	assert.Contains(t, verdict.Reasons, dto.ReasonAdvisorMissing)
}

func TestEvaluateUnsetRequirementCountsAsMet(t *testing.T) {
	internship := eligibleInternship()
	internship.Kind = models.InternshipKindNonMandatory
	internship.RequiredWorkloadHours = nil
	internship.PartialWorkloadHours = 0

	verdict := Evaluate(internship)
	assert.True(t, verdict.Eligible)
}

func TestEvaluateByIDNotFound(t *testing.T) {
	svc := NewCertificateService(newInternshipRepoStub())

	_, err := svc.EvaluateByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
