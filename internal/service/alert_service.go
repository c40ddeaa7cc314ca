package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

type alertRepository interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	FindByID(ctx context.Context, id string) (*models.Alert, error)
	MarkSent(ctx context.Context, id string, at time.Time) (bool, error)
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	Dismiss(ctx context.Context, id string, at time.Time) (bool, error)
}

// AlertService mediates status transitions on existing alerts. Reading or
// dismissing an alert never touches the source internship.
type AlertService struct {
	repo   alertRepository
	audit  auditLogger
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertService constructs AlertService.
func NewAlertService(repo alertRepository, audit auditLogger, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns alerts with pagination metadata.
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, *models.Pagination, error) {
	alerts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return alerts, pagination, nil
}

// MarkSent transitions PENDING to SENT. Any other current status fails.
func (s *AlertService) MarkSent(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status != models.AlertStatusPending {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert is not pending")
	}
	at := s.now().UTC()
	updated, err := s.repo.MarkSent(ctx, id, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark alert sent")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert status changed concurrently")
	}
	alert.Status = models.AlertStatusSent
	alert.SentAt = &at
	return alert, nil
}

// MarkRead transitions PENDING or SENT to READ. Marking an already read alert
// is a no-op; a dismissed alert cannot be read.
func (s *AlertService) MarkRead(ctx context.Context, id, actorID string) (*models.Alert, error) {
	alert, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.AlertStatusRead {
		return alert, nil
	}
	if alert.Status == models.AlertStatusDismissed {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert already dismissed")
	}
	at := s.now().UTC()
	updated, err := s.repo.MarkRead(ctx, id, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark alert read")
	}
	if !updated {
		// Re-read after a lost race: a concurrent MarkRead already won.
		current, loadErr := s.load(ctx, id)
		if loadErr == nil && current.Status == models.AlertStatusRead {
			return current, nil
		}
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert status changed concurrently")
	}
	alert.Status = models.AlertStatusRead
	if alert.ReadAt == nil {
		alert.ReadAt = &at
	}
	s.emitAudit(ctx, actorID, models.AuditActionAlertRead, alert)
	return alert, nil
}

// Dismiss transitions any non-terminal status to DISMISSED. Dismissal is
// terminal; every further transition on the alert fails.
func (s *AlertService) Dismiss(ctx context.Context, id, actorID string) (*models.Alert, error) {
	alert, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.AlertStatusDismissed {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert already dismissed")
	}
	at := s.now().UTC()
	updated, err := s.repo.Dismiss(ctx, id, at)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dismiss alert")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "alert status changed concurrently")
	}
	alert.Status = models.AlertStatusDismissed
	alert.DismissedAt = &at
	s.emitAudit(ctx, actorID, models.AuditActionAlertDismiss, alert)
	return alert, nil
}

func (s *AlertService) load(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}
	return alert, nil
}

func (s *AlertService) emitAudit(ctx context.Context, actorID, action string, alert *models.Alert) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"status": alert.Status})
	log := &models.AuditLog{
		Action:     action,
		Resource:   "alert",
		ResourceID: &alert.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "alert-service",
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
