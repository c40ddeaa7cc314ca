package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
	"github.com/edutrack-io/internship-api/pkg/jobs"
)

// JobTypeAlertDelivery identifies dispatch jobs on the queue.
const JobTypeAlertDelivery = "alert_delivery"

// Notifier delivers an alert to its audience. The concrete channel (email,
// in-app feed) is an integration detail owned by the deployment.
type Notifier interface {
	Deliver(ctx context.Context, alert *models.Alert) error
}

// LogNotifier is the default delivery channel: it only records the delivery.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Deliver logs the alert payload.
func (n *LogNotifier) Deliver(_ context.Context, alert *models.Alert) error {
	n.logger.Info("alert delivered",
		zap.String("alert_id", alert.ID),
		zap.String("internship_id", alert.InternshipID),
		zap.String("severity", string(alert.Severity)),
		zap.String("title", alert.Title))
	return nil
}

type alertSender interface {
	MarkSent(ctx context.Context, id string) (*models.Alert, error)
}

type alertFinder interface {
	FindByID(ctx context.Context, id string) (*models.Alert, error)
}

// AlertDispatcher consumes dispatch jobs, delivers pending alerts through the
// notifier and marks them sent.
type AlertDispatcher struct {
	alerts   alertFinder
	sender   alertSender
	notifier Notifier
	logger   *zap.Logger
}

// NewAlertDispatcher constructs AlertDispatcher.
func NewAlertDispatcher(alerts alertFinder, sender alertSender, notifier Notifier, logger *zap.Logger) *AlertDispatcher {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertDispatcher{alerts: alerts, sender: sender, notifier: notifier, logger: logger}
}

// Handle processes a single dispatch job. Alerts that are no longer pending
// are skipped without error so retried jobs stay idempotent.
func (d *AlertDispatcher) Handle(ctx context.Context, job jobs.Job) error {
	alertID, ok := job.Payload.(string)
	if !ok || alertID == "" {
		return fmt.Errorf("alert delivery job %s carries no alert id", job.ID)
	}

	alert, err := d.alerts.FindByID(ctx, alertID)
	if err != nil {
		return fmt.Errorf("load alert %s: %w", alertID, err)
	}
	if alert.Status != models.AlertStatusPending {
		d.logger.Debug("skipping delivery for non-pending alert",
			zap.String("alert_id", alertID), zap.String("status", string(alert.Status)))
		return nil
	}

	if err := d.notifier.Deliver(ctx, alert); err != nil {
		return fmt.Errorf("deliver alert %s: %w", alertID, err)
	}

	if _, err := d.sender.MarkSent(ctx, alertID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrIllegalTransition.Code {
			// A concurrent worker already sent it.
			return nil
		}
		return fmt.Errorf("mark alert %s sent: %w", alertID, err)
	}
	return nil
}
