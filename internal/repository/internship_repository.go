package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edutrack-io/internship-api/internal/models"
)

const internshipColumns = `id, kind, student_id, advisor_id, company_id, status, start_date, end_date,
        partial_workload_hours, required_workload_hours,
        report_1, report_2, report_3, report_4, report_5, report_6, report_7, report_8, report_9, report_10,
        created_at, updated_at`

// InternshipRepository handles persistence of internship records.
type InternshipRepository struct {
	db *sqlx.DB
}

// NewInternshipRepository constructs the repository.
func NewInternshipRepository(db *sqlx.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

// List returns internships filtered by the provided criteria.
func (r *InternshipRepository) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, int, error) {
	base := "FROM internships"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.AdvisorID != "" {
		conditions = append(conditions, fmt.Sprintf("advisor_id = $%d", len(args)+1))
		args = append(args, filter.AdvisorID)
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
		internshipColumns, base+clause, size, offset)

	var internships []models.Internship
	if err := r.db.SelectContext(ctx, &internships, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list internships: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count internships: %w", err)
	}
	return internships, total, nil
}

// FindByID returns an internship by its ID.
func (r *InternshipRepository) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	query := fmt.Sprintf("SELECT %s FROM internships WHERE id = $1", internshipColumns)
	var internship models.Internship
	if err := r.db.GetContext(ctx, &internship, query, id); err != nil {
		return nil, err
	}
	return &internship, nil
}

// Create persists a new internship record.
func (r *InternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	if internship.ID == "" {
		internship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if internship.CreatedAt.IsZero() {
		internship.CreatedAt = now
	}
	internship.UpdatedAt = now
	if internship.Status == "" {
		internship.Status = models.InternshipStatusPending
	}
	const query = `INSERT INTO internships (id, kind, student_id, advisor_id, company_id, status, start_date, end_date,
        partial_workload_hours, required_workload_hours,
        report_1, report_2, report_3, report_4, report_5, report_6, report_7, report_8, report_9, report_10,
        created_at, updated_at)
        VALUES (:id, :kind, :student_id, :advisor_id, :company_id, :status, :start_date, :end_date,
        :partial_workload_hours, :required_workload_hours,
        :report_1, :report_2, :report_3, :report_4, :report_5, :report_6, :report_7, :report_8, :report_9, :report_10,
        :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("create internship: %w", err)
	}
	return nil
}

// UpdateWorkload sets the accumulated workload hours to an absolute total.
func (r *InternshipRepository) UpdateWorkload(ctx context.Context, id string, hours int) error {
	const query = `UPDATE internships SET partial_workload_hours = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, hours, time.Now().UTC()); err != nil {
		return fmt.Errorf("update internship workload: %w", err)
	}
	return nil
}

// AdjustWorkload adds a delta to the accumulated hours inside the UPDATE so
// concurrent deltas never overwrite each other. It reports false when the
// resulting total would be negative.
func (r *InternshipRepository) AdjustWorkload(ctx context.Context, id string, delta int) (bool, error) {
	const query = `UPDATE internships
        SET partial_workload_hours = partial_workload_hours + $2, updated_at = $3
        WHERE id = $1 AND partial_workload_hours + $2 >= 0`
	res, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("adjust internship workload: %w", err)
	}
	return rowUpdated(res)
}

// UpdateReport sets a single report flag. Index must be in [1,10].
func (r *InternshipRepository) UpdateReport(ctx context.Context, id string, index int, attached bool) error {
	if !models.ValidReportIndex(index) {
		return fmt.Errorf("report index out of range: %d", index)
	}
	query := fmt.Sprintf("UPDATE internships SET report_%d = $2, updated_at = $3 WHERE id = $1", index)
	if _, err := r.db.ExecContext(ctx, query, id, attached, time.Now().UTC()); err != nil {
		return fmt.Errorf("update internship report: %w", err)
	}
	return nil
}

// UpdateStatus transitions the record only when it still holds the expected
// status, so concurrent transitions cannot act on stale reads. It reports
// whether a row was updated.
func (r *InternshipRepository) UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus) (bool, error) {
	const query = `UPDATE internships SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update internship status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update internship status: %w", err)
	}
	return affected > 0, nil
}

// ListActiveWithEndDate returns the sweep candidates: active internships that
// carry an expiration reference date.
func (r *InternshipRepository) ListActiveWithEndDate(ctx context.Context) ([]models.Internship, error) {
	query := fmt.Sprintf("SELECT %s FROM internships WHERE status = $1 AND end_date IS NOT NULL ORDER BY end_date ASC", internshipColumns)
	var internships []models.Internship
	if err := r.db.SelectContext(ctx, &internships, query, models.InternshipStatusActive); err != nil {
		return nil, fmt.Errorf("list active internships: %w", err)
	}
	return internships, nil
}

// CountByStatus aggregates internship totals per status.
func (r *InternshipRepository) CountByStatus(ctx context.Context) (map[models.InternshipStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM internships GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count internships by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.InternshipStatus]int)
	for rows.Next() {
		var status models.InternshipStatus
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan internship count: %w", err)
		}
		counts[status] = total
	}
	return counts, rows.Err()
}

// CountActiveExpiringBefore counts active internships whose end date falls
// before the cutoff.
func (r *InternshipRepository) CountActiveExpiringBefore(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM internships WHERE status = $1 AND end_date IS NOT NULL AND end_date <= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, models.InternshipStatusActive, cutoff); err != nil {
		return 0, fmt.Errorf("count expiring internships: %w", err)
	}
	return total, nil
}
