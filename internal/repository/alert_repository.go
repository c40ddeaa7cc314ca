package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edutrack-io/internship-api/internal/models"
)

// ErrDuplicateOpenAlert signals that an open expiration warning already exists
// for the internship. The partial unique index alerts_open_expiration_uq
// enforces this across concurrent sweeps; callers treat it as "skip".
var ErrDuplicateOpenAlert = errors.New("open expiration warning already exists for internship")

const pqUniqueViolation = "23505"

const alertColumns = `id, internship_id, internship_kind, type, severity, status, title, message,
        days_until_expiration, created_at, sent_at, read_at, dismissed_at`

// AlertRepository handles persistence of alert records.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// List returns alerts filtered by the provided criteria, newest first.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	base := "FROM alerts"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.InternshipID != "" {
		conditions = append(conditions, fmt.Sprintf("internship_id = $%d", len(args)+1))
		args = append(args, filter.InternshipID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		alertColumns, base+clause, size, offset)

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}
	return alerts, total, nil
}

// FindByID returns an alert by its ID.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	query := fmt.Sprintf("SELECT %s FROM alerts WHERE id = $1", alertColumns)
	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Create persists a new alert. A unique violation on the open-expiration index
// is reported as ErrDuplicateOpenAlert rather than a hard failure.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusPending
	}
	const query = `INSERT INTO alerts (id, internship_id, internship_kind, type, severity, status, title, message,
        days_until_expiration, created_at, sent_at, read_at, dismissed_at)
        VALUES (:id, :internship_id, :internship_kind, :type, :severity, :status, :title, :message,
        :days_until_expiration, :created_at, :sent_at, :read_at, :dismissed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateOpenAlert
		}
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// HasOpenExpirationWarning checks for an open expiration warning on the internship.
func (r *AlertRepository) HasOpenExpirationWarning(ctx context.Context, internshipID string) (bool, error) {
	const query = `SELECT 1 FROM alerts WHERE internship_id = $1 AND type = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	err := r.db.GetContext(ctx, &exists, query, internshipID,
		models.AlertTypeExpirationWarning, models.AlertStatusPending, models.AlertStatusSent)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check open expiration warning: %w", err)
	}
	return true, nil
}

// MarkSent transitions PENDING to SENT, stamping sent_at once. It reports
// whether a row was updated.
func (r *AlertRepository) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE alerts SET status = $2, sent_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.AlertStatusSent, at, models.AlertStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return rowUpdated(res)
}

// MarkRead transitions PENDING or SENT to READ, stamping read_at once.
func (r *AlertRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE alerts SET status = $2, read_at = COALESCE(read_at, $3) WHERE id = $1 AND status IN ($4, $5)`
	res, err := r.db.ExecContext(ctx, query, id, models.AlertStatusRead, at,
		models.AlertStatusPending, models.AlertStatusSent)
	if err != nil {
		return false, fmt.Errorf("mark alert read: %w", err)
	}
	return rowUpdated(res)
}

// Dismiss transitions any non-terminal status to DISMISSED, stamping dismissed_at.
func (r *AlertRepository) Dismiss(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE alerts SET status = $2, dismissed_at = $3 WHERE id = $1 AND status IN ($4, $5, $6)`
	res, err := r.db.ExecContext(ctx, query, id, models.AlertStatusDismissed, at,
		models.AlertStatusPending, models.AlertStatusSent, models.AlertStatusRead)
	if err != nil {
		return false, fmt.Errorf("dismiss alert: %w", err)
	}
	return rowUpdated(res)
}

// CountOpenBySeverity aggregates open alerts per severity tier.
func (r *AlertRepository) CountOpenBySeverity(ctx context.Context) (map[models.AlertSeverity]int, error) {
	const query = `SELECT severity, COUNT(*) AS total FROM alerts WHERE status IN ($1, $2) GROUP BY severity`
	rows, err := r.db.QueryxContext(ctx, query, models.AlertStatusPending, models.AlertStatusSent)
	if err != nil {
		return nil, fmt.Errorf("count open alerts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AlertSeverity]int)
	for rows.Next() {
		var severity models.AlertSeverity
		var total int
		if err := rows.Scan(&severity, &total); err != nil {
			return nil, fmt.Errorf("scan alert count: %w", err)
		}
		counts[severity] = total
	}
	return counts, rows.Err()
}

func rowUpdated(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
