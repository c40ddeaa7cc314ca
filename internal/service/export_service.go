package service

import (
	"context"
	"strconv"
	"time"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
	"github.com/edutrack-io/internship-api/pkg/export"
)

type alertLister interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
}

// ExportService renders alert history as CSV for offline review.
type ExportService struct {
	alerts   alertLister
	exporter *export.CSVExporter
}

// NewExportService constructs ExportService.
func NewExportService(alerts alertLister) *ExportService {
	return &ExportService{alerts: alerts, exporter: export.NewCSVExporter()}
}

var alertCSVHeaders = []string{
	"id", "internship_id", "internship_kind", "type", "severity", "status",
	"title", "days_until_expiration", "created_at", "sent_at", "read_at", "dismissed_at",
}

// AlertsCSV renders the filtered alert list as CSV bytes and a filename.
func (s *ExportService) AlertsCSV(ctx context.Context, filter models.AlertFilter) ([]byte, string, error) {
	// Export everything matching the filter in one page.
	filter.Page = 1
	filter.PageSize = 100

	var rows []map[string]string
	for {
		alerts, total, err := s.alerts.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts for export")
		}
		for _, alert := range alerts {
			rows = append(rows, alertCSVRow(alert))
		}
		if len(rows) >= total || len(alerts) == 0 {
			break
		}
		filter.Page++
	}

	data, err := s.exporter.Render(export.Dataset{Headers: alertCSVHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render alert export")
	}
	return data, s.exporter.Filename("alerts", time.Now()), nil
}

func alertCSVRow(alert models.Alert) map[string]string {
	row := map[string]string{
		"id":                    alert.ID,
		"internship_id":         alert.InternshipID,
		"internship_kind":       string(alert.InternshipKind),
		"type":                  string(alert.Type),
		"severity":              string(alert.Severity),
		"status":                string(alert.Status),
		"title":                 alert.Title,
		"days_until_expiration": strconv.Itoa(alert.DaysUntilExpiration),
		"created_at":            alert.CreatedAt.UTC().Format(time.RFC3339),
	}
	row["sent_at"] = formatOptionalTime(alert.SentAt)
	row["read_at"] = formatOptionalTime(alert.ReadAt)
	row["dismissed_at"] = formatOptionalTime(alert.DismissedAt)
	return row
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
