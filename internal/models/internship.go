package models

import "time"

// InternshipKind distinguishes curricular requirements.
type InternshipKind string

const (
	InternshipKindMandatory    InternshipKind = "MANDATORY"
	InternshipKindNonMandatory InternshipKind = "NON_MANDATORY"
)

// MandatoryWorkloadHours is the fixed hour requirement for mandatory internships.
const MandatoryWorkloadHours = 390

// InternshipStatus captures the lifecycle state of an internship record.
type InternshipStatus string

const (
	InternshipStatusPending   InternshipStatus = "PENDING"
	InternshipStatusActive    InternshipStatus = "ACTIVE"
	InternshipStatusCompleted InternshipStatus = "COMPLETED"
	InternshipStatusCancelled InternshipStatus = "CANCELLED"
)

// Terminal reports whether no further status transitions are allowed.
func (s InternshipStatus) Terminal() bool {
	return s == InternshipStatusCompleted || s == InternshipStatusCancelled
}

// ReportCount is the number of sequential progress reports tracked per internship.
const ReportCount = 10

// ReportFlags tracks attachment of the ten progress reports. Indices are
// 1-based; flags are independent and carry no ordering constraint.
type ReportFlags struct {
	R1  bool `db:"report_1" json:"r1"`
	R2  bool `db:"report_2" json:"r2"`
	R3  bool `db:"report_3" json:"r3"`
	R4  bool `db:"report_4" json:"r4"`
	R5  bool `db:"report_5" json:"r5"`
	R6  bool `db:"report_6" json:"r6"`
	R7  bool `db:"report_7" json:"r7"`
	R8  bool `db:"report_8" json:"r8"`
	R9  bool `db:"report_9" json:"r9"`
	R10 bool `db:"report_10" json:"r10"`
}

func (f *ReportFlags) slots() []*bool {
	return []*bool{&f.R1, &f.R2, &f.R3, &f.R4, &f.R5, &f.R6, &f.R7, &f.R8, &f.R9, &f.R10}
}

// ValidReportIndex reports whether index addresses one of the ten flags.
func ValidReportIndex(index int) bool {
	return index >= 1 && index <= ReportCount
}

// Get returns the flag at the 1-based index.
func (f ReportFlags) Get(index int) bool {
	if !ValidReportIndex(index) {
		return false
	}
	return *f.slots()[index-1]
}

// Set assigns the flag at the 1-based index.
func (f *ReportFlags) Set(index int, attached bool) {
	if !ValidReportIndex(index) {
		return
	}
	*f.slots()[index-1] = attached
}

// Count returns how many reports are attached.
func (f ReportFlags) Count() int {
	count := 0
	for _, slot := range f.slots() {
		if *slot {
			count++
		}
	}
	return count
}

// Completed reports whether all ten reports are attached.
func (f ReportFlags) Completed() bool {
	return f.Count() == ReportCount
}

// Internship represents a student internship record.
type Internship struct {
	ID                    string           `db:"id" json:"id"`
	Kind                  InternshipKind   `db:"kind" json:"kind"`
	StudentID             string           `db:"student_id" json:"studentId"`
	AdvisorID             *string          `db:"advisor_id" json:"advisorId,omitempty"`
	CompanyID             *string          `db:"company_id" json:"companyId,omitempty"`
	Status                InternshipStatus `db:"status" json:"status"`
	StartDate             *time.Time       `db:"start_date" json:"startDate,omitempty"`
	EndDate               *time.Time       `db:"end_date" json:"endDate,omitempty"`
	PartialWorkloadHours  int              `db:"partial_workload_hours" json:"partialWorkloadHours"`
	RequiredWorkloadHours *int             `db:"required_workload_hours" json:"requiredWorkloadHours,omitempty"`
	ReportFlags           `json:"reports"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// RemainingWorkload returns the outstanding hours, never negative. Records
// without a required workload report zero remaining.
func (i Internship) RemainingWorkload() int {
	if i.RequiredWorkloadHours == nil {
		return 0
	}
	remaining := *i.RequiredWorkloadHours - i.PartialWorkloadHours
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WorkloadSatisfied reports whether the hour requirement is met. An unset
// requirement is treated as satisfied.
func (i Internship) WorkloadSatisfied() bool {
	return i.RequiredWorkloadHours == nil || i.PartialWorkloadHours >= *i.RequiredWorkloadHours
}

// InternshipFilter constrains listing queries.
type InternshipFilter struct {
	Status    InternshipStatus
	Kind      InternshipKind
	StudentID string
	AdvisorID string
	Page      int
	PageSize  int
}
