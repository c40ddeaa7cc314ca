package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/dto"
	"github.com/edutrack-io/internship-api/internal/models"
	"github.com/edutrack-io/internship-api/internal/repository"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

// Expiration warning thresholds in days, evaluated tightest first.
const (
	highSeverityDays   = 7
	mediumSeverityDays = 15
	lowSeverityDays    = 30
)

type sweepSource interface {
	ListActiveWithEndDate(ctx context.Context) ([]models.Internship, error)
}

type alertStore interface {
	HasOpenExpirationWarning(ctx context.Context, internshipID string) (bool, error)
	Create(ctx context.Context, alert *models.Alert) error
}

// DispatchFunc hands a freshly created alert over to the delivery queue.
type DispatchFunc func(alertID string) error

type sweepMetrics interface {
	RecordSweep(created int, duration time.Duration)
}

// AlertScannerService runs the idempotent expiration sweep over active
// internships. All deduplication state lives in the alert store, so sweeps
// may run concurrently on any schedule.
type AlertScannerService struct {
	internships sweepSource
	alerts      alertStore
	dispatch    DispatchFunc
	audit       auditLogger
	metrics     sweepMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewAlertScannerService constructs the scanner. dispatch and metrics may be nil.
func NewAlertScannerService(internships sweepSource, alerts alertStore, dispatch DispatchFunc, audit auditLogger, metrics sweepMetrics, logger *zap.Logger) *AlertScannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertScannerService{
		internships: internships,
		alerts:      alerts,
		dispatch:    dispatch,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Scan performs a single sweep and returns how many alerts it created.
// Records without a qualifying end date or with an open warning are skipped;
// a duplicate insert racing another sweep counts as a skip, not a failure.
func (s *AlertScannerService) Scan(ctx context.Context) (*dto.ScanResult, error) {
	start := s.now()
	candidates, err := s.internships.ListActiveWithEndDate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sweep candidates")
	}

	created := 0
	for _, internship := range candidates {
		if internship.EndDate == nil {
			continue
		}
		days := daysUntil(*internship.EndDate, start)
		severity, ok := severityFor(days)
		if !ok {
			continue
		}

		exists, err := s.alerts.HasOpenExpirationWarning(ctx, internship.ID)
		if err != nil {
			s.logger.Warn("open alert check failed, skipping internship",
				zap.String("internship_id", internship.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		alert := buildExpirationAlert(internship, days, severity)
		if err := s.alerts.Create(ctx, alert); err != nil {
			if errors.Is(err, repository.ErrDuplicateOpenAlert) {
				continue
			}
			s.logger.Warn("alert creation failed, skipping internship",
				zap.String("internship_id", internship.ID), zap.Error(err))
			continue
		}
		created++

		if s.dispatch != nil {
			if err := s.dispatch(alert.ID); err != nil {
				s.logger.Warn("failed to enqueue alert for delivery",
					zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
	}

	duration := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordSweep(created, duration)
	}
	s.emitAudit(ctx, created, len(candidates))
	s.logger.Info("expiration sweep completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("alerts_created", created),
		zap.Duration("duration", duration))

	return &dto.ScanResult{
		Message:       fmt.Sprintf("expiration sweep completed: %d alert(s) created", created),
		AlertsCreated: created,
	}, nil
}

// StartSchedule boots a goroutine that runs the sweep on a fixed interval
// until the context is cancelled.
func (s *AlertScannerService) StartSchedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Scan(ctx); err != nil {
					s.logger.Warn("scheduled sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *AlertScannerService) emitAudit(ctx context.Context, created, candidates int) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:    models.AuditActionExpirationSweepRun,
		Resource:  "alert",
		NewValues: []byte(fmt.Sprintf(`{"alertsCreated":%d,"candidates":%d}`, created, candidates)),
		IPAddress: "system",
		UserAgent: "alert-scanner",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// daysUntil counts whole calendar days from now to the end date in UTC.
// It goes negative once the end date has passed.
func daysUntil(end, now time.Time) int {
	endDay := truncateToDay(end)
	nowDay := truncateToDay(now)
	return int(endDay.Sub(nowDay).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// severityFor maps remaining days to a warning tier, tightest first. Past-due
// records fall into the high tier; anything beyond the loosest threshold
// produces no alert.
func severityFor(days int) (models.AlertSeverity, bool) {
	switch {
	case days <= highSeverityDays:
		return models.AlertSeverityHigh, true
	case days <= mediumSeverityDays:
		return models.AlertSeverityMedium, true
	case days <= lowSeverityDays:
		return models.AlertSeverityLow, true
	default:
		return "", false
	}
}

func buildExpirationAlert(internship models.Internship, days int, severity models.AlertSeverity) *models.Alert {
	kindLabel := "Internship"
	if internship.Kind == models.InternshipKindMandatory {
		kindLabel = "Mandatory internship"
	} else if internship.Kind == models.InternshipKindNonMandatory {
		kindLabel = "Non-mandatory internship"
	}

	var title, message string
	switch {
	case days < 0:
		title = "Internship past its end date"
		message = fmt.Sprintf("%s for student %s passed its end date %d day(s) ago.", kindLabel, internship.StudentID, -days)
	case days == 0:
		title = "Internship expires today"
		message = fmt.Sprintf("%s for student %s ends today.", kindLabel, internship.StudentID)
	default:
		title = fmt.Sprintf("Internship expires in %d day(s)", days)
		message = fmt.Sprintf("%s for student %s ends in %d day(s).", kindLabel, internship.StudentID, days)
	}

	return &models.Alert{
		InternshipID:        internship.ID,
		InternshipKind:      internship.Kind,
		Type:                models.AlertTypeExpirationWarning,
		Severity:            severity,
		Status:              models.AlertStatusPending,
		Title:               title,
		Message:             message,
		DaysUntilExpiration: days,
	}
}
