package models

import "time"

// AlertType enumerates supported alert categories.
type AlertType string

const (
	AlertTypeExpirationWarning AlertType = "EXPIRATION_WARNING"
	AlertTypeDocumentMissing   AlertType = "DOCUMENT_MISSING"
	AlertTypeSystem            AlertType = "SYSTEM_ALERT"
)

// AlertStatus captures the delivery/read lifecycle of an alert.
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "PENDING"
	AlertStatusSent      AlertStatus = "SENT"
	AlertStatusRead      AlertStatus = "READ"
	AlertStatusDismissed AlertStatus = "DISMISSED"
)

// AlertSeverity tiers expiration warnings by urgency.
type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "LOW"
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	AlertSeverityHigh   AlertSeverity = "HIGH"
)

// Alert is a persisted notification about an internship.
type Alert struct {
	ID                  string         `db:"id" json:"id"`
	InternshipID        string         `db:"internship_id" json:"internshipId"`
	InternshipKind      InternshipKind `db:"internship_kind" json:"internshipKind"`
	Type                AlertType      `db:"type" json:"alertType"`
	Severity            AlertSeverity  `db:"severity" json:"severity"`
	Status              AlertStatus    `db:"status" json:"status"`
	Title               string         `db:"title" json:"title"`
	Message             string         `db:"message" json:"message"`
	DaysUntilExpiration int            `db:"days_until_expiration" json:"daysUntilExpiration"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	SentAt              *time.Time     `db:"sent_at" json:"sentAt,omitempty"`
	ReadAt              *time.Time     `db:"read_at" json:"readAt,omitempty"`
	DismissedAt         *time.Time     `db:"dismissed_at" json:"dismissedAt,omitempty"`
}

// Open reports whether the alert still counts against the one-open-alert rule.
func (a Alert) Open() bool {
	return a.Status == AlertStatusPending || a.Status == AlertStatusSent
}

// AlertFilter constrains listing queries.
type AlertFilter struct {
	Status       AlertStatus
	Type         AlertType
	InternshipID string
	Page         int
	PageSize     int
}
