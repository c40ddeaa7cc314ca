package dto

// DashboardResponse aggregates coordinator-facing counters.
type DashboardResponse struct {
	Internships InternshipSection `json:"internships"`
	Alerts      AlertSection      `json:"alerts"`
}

// InternshipSection breaks internship counts down by status.
type InternshipSection struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Active       int `json:"active"`
	Completed    int `json:"completed"`
	Cancelled    int `json:"cancelled"`
	ExpiringSoon int `json:"expiringSoon"`
}

// AlertSection breaks open alerts down by severity.
type AlertSection struct {
	Open   int `json:"open"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}
