package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack-io/internship-api/internal/models"
	"github.com/edutrack-io/internship-api/internal/repository"
)

type sweepSourceStub struct {
	internships []models.Internship
}

func (s *sweepSourceStub) ListActiveWithEndDate(ctx context.Context) ([]models.Internship, error) {
	return s.internships, nil
}

type alertStoreStub struct {
	alerts []*models.Alert

	duplicateOn map[string]bool
}

func (s *alertStoreStub) HasOpenExpirationWarning(ctx context.Context, internshipID string) (bool, error) {
	for _, alert := range s.alerts {
		if alert.InternshipID == internshipID && alert.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (s *alertStoreStub) Create(ctx context.Context, alert *models.Alert) error {
	if s.duplicateOn[alert.InternshipID] {
		return repository.ErrDuplicateOpenAlert
	}
	alert.ID = fmt.Sprintf("alert-%d", len(s.alerts)+1)
	s.alerts = append(s.alerts, alert)
	return nil
}

var sweepNow = time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

func sweepCandidate(id string, endsInDays int) models.Internship {
	end := sweepNow.AddDate(0, 0, endsInDays)
	return models.Internship{
		ID:        id,
		Kind:      models.InternshipKindMandatory,
		StudentID: "student-" + id,
		Status:    models.InternshipStatusActive,
		EndDate:   &end,
	}
}

func newTestScanner(source *sweepSourceStub, store *alertStoreStub, dispatch DispatchFunc) *AlertScannerService {
	scanner := NewAlertScannerService(source, store, dispatch, nil, nil, nil)
	scanner.now = func() time.Time { return sweepNow }
	return scanner
}

func TestScannerSeverityTiers(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{
		sweepCandidate("high", 5),
		sweepCandidate("medium", 12),
		sweepCandidate("low", 30),
		sweepCandidate("quiet", 45),
	}}
	store := &alertStoreStub{}
	scanner := newTestScanner(source, store, nil)

	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.AlertsCreated)
	assert.Equal(t, "expiration sweep completed: 3 alert(s) created", result.Message)

	bySeverity := map[string]models.AlertSeverity{}
	byDays := map[string]int{}
	for _, alert := range store.alerts {
		bySeverity[alert.InternshipID] = alert.Severity
		byDays[alert.InternshipID] = alert.DaysUntilExpiration
	}
	assert.Equal(t, models.AlertSeverityHigh, bySeverity["high"])
	assert.Equal(t, models.AlertSeverityMedium, bySeverity["medium"])
	assert.Equal(t, models.AlertSeverityLow, bySeverity["low"])
	assert.NotContains(t, bySeverity, "quiet")
	assert.Equal(t, 5, byDays["high"])
	assert.Equal(t, 30, byDays["low"])
}

func TestScannerPastDueIsHighSeverity(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{
		sweepCandidate("overdue", -3),
		sweepCandidate("today", 0),
	}}
	store := &alertStoreStub{}
	scanner := newTestScanner(source, store, nil)

	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.AlertsCreated)
	for _, alert := range store.alerts {
		assert.Equal(t, models.AlertSeverityHigh, alert.Severity)
		assert.Equal(t, models.AlertStatusPending, alert.Status)
	}
}

func TestScannerSecondSweepIsIdempotent(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{sweepCandidate("i-1", 5)}}
	store := &alertStoreStub{}
	scanner := newTestScanner(source, store, nil)

	first, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.AlertsCreated)

	second, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsCreated)
	assert.Len(t, store.alerts, 1)
}

func TestScannerTreatsDuplicateInsertAsSkip(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{
		sweepCandidate("racy", 5),
		sweepCandidate("clean", 6),
	}}
	store := &alertStoreStub{duplicateOn: map[string]bool{"racy": true}}
	scanner := newTestScanner(source, store, nil)

	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsCreated)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, "clean", store.alerts[0].InternshipID)
}

func TestScannerDismissedAlertAllowsNewWarning(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{sweepCandidate("i-1", 5)}}
	dismissed := time.Now().UTC()
	store := &alertStoreStub{alerts: []*models.Alert{{
		ID:           "old",
		InternshipID: "i-1",
		Type:         models.AlertTypeExpirationWarning,
		Status:       models.AlertStatusDismissed,
		DismissedAt:  &dismissed,
	}}}
	scanner := newTestScanner(source, store, nil)

	result, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsCreated)
}

func TestScannerEnqueuesCreatedAlerts(t *testing.T) {
	source := &sweepSourceStub{internships: []models.Internship{sweepCandidate("i-1", 2)}}
	store := &alertStoreStub{}
	var dispatched []string
	scanner := newTestScanner(source, store, func(alertID string) error {
		dispatched = append(dispatched, alertID)
		return nil
	})

	_, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, dispatched, 1)
	assert.Equal(t, store.alerts[0].ID, dispatched[0])
}

func TestDaysUntilUsesCalendarDays(t *testing.T) {
	now := time.Date(2026, 6, 15, 23, 50, 0, 0, time.UTC)

	assert.Equal(t, 5, daysUntil(now.AddDate(0, 0, 5), now))
	// A few minutes into the fifth day still counts as five calendar days.
	assert.Equal(t, 5, daysUntil(time.Date(2026, 6, 20, 0, 5, 0, 0, time.UTC), now))
	assert.Equal(t, 0, daysUntil(now, now))
	assert.Equal(t, -2, daysUntil(now.AddDate(0, 0, -2), now))
}

func TestSeverityBoundaries(t *testing.T) {
	cases := []struct {
		days     int
		severity models.AlertSeverity
		alert    bool
	}{
		{-1, models.AlertSeverityHigh, true},
		{0, models.AlertSeverityHigh, true},
		{7, models.AlertSeverityHigh, true},
		{8, models.AlertSeverityMedium, true},
		{15, models.AlertSeverityMedium, true},
		{16, models.AlertSeverityLow, true},
		{30, models.AlertSeverityLow, true},
		{31, "", false},
	}
	for _, tc := range cases {
		severity, ok := severityFor(tc.days)
		assert.Equal(t, tc.alert, ok, "days=%d", tc.days)
		if tc.alert {
			assert.Equal(t, tc.severity, severity, "days=%d", tc.days)
		}
	}
}
