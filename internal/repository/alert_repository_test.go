package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack-io/internship-api/internal/models"
)

func alertRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "internship_id", "internship_kind", "type", "severity", "status", "title", "message",
		"days_until_expiration", "created_at", "sent_at", "read_at", "dismissed_at",
	})
}

func TestAlertRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectExec("INSERT INTO alerts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "alerts_open_expiration_uq"})

	alert := &models.Alert{
		InternshipID:   "i-1",
		InternshipKind: models.InternshipKindMandatory,
		Type:           models.AlertTypeExpirationWarning,
		Severity:       models.AlertSeverityHigh,
		Title:          "Internship expires in 5 day(s)",
		Message:        "ends soon",
	}
	err := repo.Create(context.Background(), alert)
	assert.ErrorIs(t, err, ErrDuplicateOpenAlert)
}

func TestAlertRepositoryCreateDefaultsPendingStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectExec("INSERT INTO alerts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	alert := &models.Alert{
		InternshipID:   "i-1",
		InternshipKind: models.InternshipKindMandatory,
		Type:           models.AlertTypeExpirationWarning,
		Severity:       models.AlertSeverityLow,
	}
	require.NoError(t, repo.Create(context.Background(), alert))
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, models.AlertStatusPending, alert.Status)
}

func TestAlertRepositoryHasOpenExpirationWarning(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	mock.ExpectQuery("SELECT 1 FROM alerts WHERE internship_id = \\$1").
		WithArgs("i-1", "EXPIRATION_WARNING", "PENDING", "SENT").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.HasOpenExpirationWarning(context.Background(), "i-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM alerts WHERE internship_id = \\$1").
		WithArgs("i-2", "EXPIRATION_WARNING", "PENDING", "SENT").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.HasOpenExpirationWarning(context.Background(), "i-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAlertRepositoryMarkReadGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec("UPDATE alerts SET status = \\$2, read_at = COALESCE\\(read_at, \\$3\\)").
		WithArgs("a-1", "READ", at, "PENDING", "SENT").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.MarkRead(context.Background(), "a-1", at)
	require.NoError(t, err)
	assert.True(t, updated)

	// A dismissed alert matches no row.
	mock.ExpectExec("UPDATE alerts SET status = \\$2, read_at = COALESCE\\(read_at, \\$3\\)").
		WithArgs("a-2", "READ", at, "PENDING", "SENT").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err = repo.MarkRead(context.Background(), "a-2", at)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestAlertRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	now := time.Now().UTC()
	rows := alertRows().AddRow(
		"a-1", "i-1", "MANDATORY", "EXPIRATION_WARNING", "HIGH", "PENDING",
		"Internship expires in 5 day(s)", "ends soon", 5, now, nil, nil, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM alerts WHERE status = \\$1").
		WithArgs("PENDING").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM alerts WHERE status = \\$1").
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	alerts, total, err := repo.List(context.Background(), models.AlertFilter{Status: models.AlertStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, alerts, 1)
	assert.Equal(t, 5, alerts[0].DaysUntilExpiration)
	assert.Nil(t, alerts[0].SentAt)
}

func TestAlertRepositoryCountOpenBySeverity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	rows := sqlmock.NewRows([]string{"severity", "total"}).
		AddRow("HIGH", 3).
		AddRow("LOW", 1)
	mock.ExpectQuery("SELECT severity, COUNT\\(\\*\\) AS total FROM alerts").
		WithArgs("PENDING", "SENT").
		WillReturnRows(rows)

	counts, err := repo.CountOpenBySeverity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.AlertSeverityHigh])
	assert.Equal(t, 1, counts[models.AlertSeverityLow])
	assert.Equal(t, 0, counts[models.AlertSeverityMedium])
}
