package dto

// ScanResult summarises a single expiration sweep.
type ScanResult struct {
	Message       string `json:"message"`
	AlertsCreated int    `json:"alertsCreated"`
}
