package service

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

type internshipRepoStub struct {
	mu    sync.Mutex
	items map[string]*models.Internship

	statusConflict bool
	reportCalls    int
	onFind         func()
}

func newInternshipRepoStub(items ...*models.Internship) *internshipRepoStub {
	stub := &internshipRepoStub{items: map[string]*models.Internship{}}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (s *internshipRepoStub) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, int, error) {
	result := []models.Internship{}
	for _, item := range s.items {
		result = append(result, *item)
	}
	return result, len(result), nil
}

func (s *internshipRepoStub) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	if gate := s.onFind; gate != nil {
		gate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (s *internshipRepoStub) Create(ctx context.Context, internship *models.Internship) error {
	if internship.ID == "" {
		internship.ID = "generated-id"
	}
	copied := *internship
	s.items[internship.ID] = &copied
	return nil
}

func (s *internshipRepoStub) UpdateWorkload(ctx context.Context, id string, hours int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id].PartialWorkloadHours = hours
	return nil
}

func (s *internshipRepoStub) AdjustWorkload(ctx context.Context, id string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.PartialWorkloadHours+delta < 0 {
		return false, nil
	}
	item.PartialWorkloadHours += delta
	return true, nil
}

func (s *internshipRepoStub) UpdateReport(ctx context.Context, id string, index int, attached bool) error {
	s.reportCalls++
	s.items[id].ReportFlags.Set(index, attached)
	return nil
}

func (s *internshipRepoStub) UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus) (bool, error) {
	if s.statusConflict {
		return false, nil
	}
	item := s.items[id]
	if item.Status != from {
		return false, nil
	}
	item.Status = to
	return true, nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func strRef(s string) *string { return &s }

func intRef(i int) *int { return &i }

func boolRef(b bool) *bool { return &b }

func timeRef(t time.Time) *time.Time { return &t }

func activeInternship(id string) *models.Internship {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)
	required := models.MandatoryWorkloadHours
	return &models.Internship{
		ID:                    id,
		Kind:                  models.InternshipKindMandatory,
		StudentID:             "student-1",
		AdvisorID:             strRef("advisor-1"),
		Status:                models.InternshipStatusActive,
		StartDate:             &start,
		EndDate:               &end,
		RequiredWorkloadHours: &required,
	}
}

func TestInternshipCreateMandatoryForcesRequiredHours(t *testing.T) {
	repo := newInternshipRepoStub()
	svc := NewInternshipService(repo, &auditStub{}, nil, nil)

	supplied := 100
	detail, err := svc.Create(context.Background(), CreateInternshipRequest{
		Kind:                  models.InternshipKindMandatory,
		StudentID:             "student-1",
		RequiredWorkloadHours: &supplied,
	}, "coord-1")
	require.NoError(t, err)
	require.NotNil(t, detail.RequiredWorkloadHours)
	assert.Equal(t, models.MandatoryWorkloadHours, *detail.RequiredWorkloadHours)
	assert.Equal(t, models.InternshipStatusPending, detail.Status)
	assert.Equal(t, models.MandatoryWorkloadHours, detail.RemainingWorkloadHours)
}

func TestInternshipCreateRejectsInvertedDates(t *testing.T) {
	svc := NewInternshipService(newInternshipRepoStub(), nil, nil, nil)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateInternshipRequest{
		Kind:      models.InternshipKindNonMandatory,
		StudentID: "student-1",
		StartDate: &start,
		EndDate:   timeRef(start.AddDate(0, -1, 0)),
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInternshipUpdateWorkloadAbsoluteAndDelta(t *testing.T) {
	record := activeInternship("i-1")
	record.PartialWorkloadHours = 100
	repo := newInternshipRepoStub(record)
	svc := NewInternshipService(repo, &auditStub{}, nil, nil)

	detail, err := svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Hours: intRef(250)}, "coord-1")
	require.NoError(t, err)
	assert.Equal(t, 250, detail.PartialWorkloadHours)

	detail, err = svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Delta: intRef(-50)}, "coord-1")
	require.NoError(t, err)
	assert.Equal(t, 200, detail.PartialWorkloadHours)
	assert.Equal(t, models.MandatoryWorkloadHours-200, detail.RemainingWorkloadHours)

	// Status is never touched by workload updates.
	assert.Equal(t, models.InternshipStatusActive, repo.items["i-1"].Status)
}

func TestInternshipUpdateWorkloadRejectsNegativeTotal(t *testing.T) {
	record := activeInternship("i-1")
	record.PartialWorkloadHours = 30
	svc := NewInternshipService(newInternshipRepoStub(record), nil, nil, nil)

	_, err := svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Delta: intRef(-31)}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWorkload.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Hours: intRef(-1)}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWorkload.Code, appErrors.FromError(err).Code)
}

func TestInternshipUpdateWorkloadRequiresExactlyOneField(t *testing.T) {
	svc := NewInternshipService(newInternshipRepoStub(activeInternship("i-1")), nil, nil, nil)

	_, err := svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Hours: intRef(10), Delta: intRef(5)}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInternshipUpdateWorkloadConcurrentDeltasAccumulate(t *testing.T) {
	record := activeInternship("i-1")
	record.PartialWorkloadHours = 100
	repo := newInternshipRepoStub(record)
	svc := NewInternshipService(repo, &auditStub{}, nil, nil)

	// Hold both callers at their initial read so neither write can land
	// before the other has loaded the same starting total.
	var arrivals int32
	loaded := make(chan struct{})
	repo.onFind = func() {
		if atomic.AddInt32(&arrivals, 1) == 2 {
			close(loaded)
		}
		<-loaded
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Delta: intRef(50)}, "coord-1")
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 200, repo.items["i-1"].PartialWorkloadHours)
}

func TestInternshipRecordReportIsIdempotent(t *testing.T) {
	record := activeInternship("i-1")
	repo := newInternshipRepoStub(record)
	svc := NewInternshipService(repo, &auditStub{}, nil, nil)

	detail, err := svc.RecordReport(context.Background(), "i-1", 3, RecordReportRequest{Attached: boolRef(true)}, "")
	require.NoError(t, err)
	assert.True(t, detail.ReportFlags.R3)
	assert.Equal(t, 1, detail.CompletedReports)
	assert.Equal(t, 1, repo.reportCalls)

	// Re-applying the same value does not hit the store again.
	detail, err = svc.RecordReport(context.Background(), "i-1", 3, RecordReportRequest{Attached: boolRef(true)}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.CompletedReports)
	assert.Equal(t, 1, repo.reportCalls)
}

func TestInternshipRecordReportIndependentOrder(t *testing.T) {
	repo := newInternshipRepoStub(activeInternship("i-1"))
	svc := NewInternshipService(repo, nil, nil, nil)

	_, err := svc.RecordReport(context.Background(), "i-1", 7, RecordReportRequest{Attached: boolRef(true)}, "")
	require.NoError(t, err)
	detail, err := svc.RecordReport(context.Background(), "i-1", 1, RecordReportRequest{Attached: boolRef(true)}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CompletedReports)
	assert.True(t, detail.ReportFlags.R7)
}

func TestInternshipRecordReportRejectsBadIndex(t *testing.T) {
	svc := NewInternshipService(newInternshipRepoStub(activeInternship("i-1")), nil, nil, nil)

	for _, index := range []int{0, 11, -4} {
		_, err := svc.RecordReport(context.Background(), "i-1", index, RecordReportRequest{Attached: boolRef(true)}, "")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestInternshipTransitionActivationRequiresAdvisorAndDates(t *testing.T) {
	record := activeInternship("i-1")
	record.Status = models.InternshipStatusPending
	record.AdvisorID = nil
	svc := NewInternshipService(newInternshipRepoStub(record), nil, nil, nil)

	_, err := svc.Transition(context.Background(), "i-1", TransitionRequest{Status: models.InternshipStatusActive}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInternshipTransitionCompletedRequiresWorkload(t *testing.T) {
	record := activeInternship("i-1")
	record.PartialWorkloadHours = 300
	repo := newInternshipRepoStub(record)
	svc := NewInternshipService(repo, &auditStub{}, nil, nil)

	_, err := svc.Transition(context.Background(), "i-1", TransitionRequest{Status: models.InternshipStatusCompleted}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIncompleteWorkload.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.InternshipStatusActive, repo.items["i-1"].Status)

	// Topping up the hours unblocks completion.
	_, err = svc.UpdateWorkload(context.Background(), "i-1", UpdateWorkloadRequest{Delta: intRef(90)}, "")
	require.NoError(t, err)
	detail, err := svc.Transition(context.Background(), "i-1", TransitionRequest{Status: models.InternshipStatusCompleted}, "")
	require.NoError(t, err)
	assert.Equal(t, models.InternshipStatusCompleted, detail.Status)
}

func TestInternshipTransitionTerminalStatesAreFinal(t *testing.T) {
	completed := activeInternship("i-1")
	completed.Status = models.InternshipStatusCompleted
	cancelled := activeInternship("i-2")
	cancelled.Status = models.InternshipStatusCancelled
	svc := NewInternshipService(newInternshipRepoStub(completed, cancelled), nil, nil, nil)

	targets := []models.InternshipStatus{
		models.InternshipStatusPending,
		models.InternshipStatusActive,
		models.InternshipStatusCompleted,
		models.InternshipStatusCancelled,
	}
	for _, id := range []string{"i-1", "i-2"} {
		for _, target := range targets {
			_, err := svc.Transition(context.Background(), id, TransitionRequest{Status: target}, "")
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
		}
	}
}

func TestInternshipTransitionLostRace(t *testing.T) {
	record := activeInternship("i-1")
	record.Status = models.InternshipStatusPending
	repo := newInternshipRepoStub(record)
	repo.statusConflict = true
	svc := NewInternshipService(repo, nil, nil, nil)

	_, err := svc.Transition(context.Background(), "i-1", TransitionRequest{Status: models.InternshipStatusCancelled}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
}

func TestInternshipTransitionAuditsActor(t *testing.T) {
	record := activeInternship("i-1")
	record.Status = models.InternshipStatusPending
	audit := &auditStub{}
	svc := NewInternshipService(newInternshipRepoStub(record), audit, nil, nil)

	_, err := svc.Transition(context.Background(), "i-1", TransitionRequest{Status: models.InternshipStatusActive}, "coord-9")
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusTransition, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].ActorID)
	assert.Equal(t, "coord-9", *audit.logs[0].ActorID)
}

func TestInternshipGetNotFound(t *testing.T) {
	svc := NewInternshipService(newInternshipRepoStub(), nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
