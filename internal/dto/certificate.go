package dto

// BlockingReason identifies a single certificate eligibility blocker.
type BlockingReason string

const (
	ReasonNotCompleted      BlockingReason = "INTERNSHIP_NOT_COMPLETED"
	ReasonWorkloadNotMet    BlockingReason = "WORKLOAD_NOT_MET"
	ReasonAdvisorMissing    BlockingReason = "ADVISOR_MISSING"
	ReasonReportsIncomplete BlockingReason = "REPORTS_INCOMPLETE"
)

// CertificateEligibility is the evaluator verdict consumed by the external
// document renderer.
type CertificateEligibility struct {
	InternshipID string           `json:"internshipId"`
	Eligible     bool             `json:"eligible"`
	Reasons      []BlockingReason `json:"reasons"`
}
