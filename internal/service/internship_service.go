package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

type internshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, int, error)
	FindByID(ctx context.Context, id string) (*models.Internship, error)
	Create(ctx context.Context, internship *models.Internship) error
	UpdateWorkload(ctx context.Context, id string, hours int) error
	AdjustWorkload(ctx context.Context, id string, delta int) (bool, error)
	UpdateReport(ctx context.Context, id string, index int, attached bool) error
	UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus) (bool, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateInternshipRequest describes internship creation payload.
type CreateInternshipRequest struct {
	Kind                  models.InternshipKind `json:"kind" validate:"required,oneof=MANDATORY NON_MANDATORY"`
	StudentID             string                `json:"studentId" validate:"required"`
	AdvisorID             *string               `json:"advisorId,omitempty"`
	CompanyID             *string               `json:"companyId,omitempty"`
	StartDate             *time.Time            `json:"startDate,omitempty"`
	EndDate               *time.Time            `json:"endDate,omitempty"`
	RequiredWorkloadHours *int                  `json:"requiredWorkloadHours,omitempty" validate:"omitempty,min=1"`
}

// UpdateWorkloadRequest carries either an absolute hour total or a delta.
type UpdateWorkloadRequest struct {
	Hours *int   `json:"hours,omitempty"`
	Delta *int   `json:"delta,omitempty"`
	Note  string `json:"note,omitempty"`
}

// RecordReportRequest toggles a single progress report flag.
type RecordReportRequest struct {
	Attached *bool `json:"attached" validate:"required"`
}

// TransitionRequest names the target lifecycle status.
type TransitionRequest struct {
	Status models.InternshipStatus `json:"status" validate:"required,oneof=PENDING ACTIVE COMPLETED CANCELLED"`
}

// InternshipDetail augments the record with derived workload/report figures.
type InternshipDetail struct {
	models.Internship
	RemainingWorkloadHours int `json:"remainingWorkloadHours"`
	CompletedReports       int `json:"completedReports"`
}

// InternshipService owns the lifecycle state machine and the workload/report
// invariants for internship records.
type InternshipService struct {
	repo      internshipRepository
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInternshipService constructs InternshipService.
func NewInternshipService(repo internshipRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *InternshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternshipService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns internships with pagination metadata.
func (s *InternshipService) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, *models.Pagination, error) {
	internships, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list internships")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return internships, pagination, nil
}

// Get returns a single internship with derived figures.
func (s *InternshipService) Get(ctx context.Context, id string) (*InternshipDetail, error) {
	internship, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail(internship), nil
}

// Create registers a new internship in PENDING status. The required workload
// is derived from the kind: mandatory internships always require the fixed
// constant; non-mandatory ones take the caller-supplied value, if any.
func (s *InternshipService) Create(ctx context.Context, req CreateInternshipRequest, actorID string) (*InternshipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid internship payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	required := req.RequiredWorkloadHours
	if req.Kind == models.InternshipKindMandatory {
		fixed := models.MandatoryWorkloadHours
		required = &fixed
	}

	internship := &models.Internship{
		Kind:                  req.Kind,
		StudentID:             req.StudentID,
		AdvisorID:             req.AdvisorID,
		CompanyID:             req.CompanyID,
		Status:                models.InternshipStatusPending,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
		RequiredWorkloadHours: required,
	}
	if err := s.repo.Create(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create internship")
	}

	s.emitAudit(ctx, actorID, models.AuditActionInternshipCreate, internship.ID, nil, internship)
	return detail(internship), nil
}

// UpdateWorkload applies an absolute total or a delta to the accumulated
// hours. Negative resulting totals are rejected; the status is never touched.
func (s *InternshipService) UpdateWorkload(ctx context.Context, id string, req UpdateWorkloadRequest, actorID string) (*InternshipDetail, error) {
	if (req.Hours == nil) == (req.Delta == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of hours or delta is required")
	}

	internship, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := internship.PartialWorkloadHours
	if req.Hours != nil {
		if *req.Hours < 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidWorkload, "")
		}
		if err := s.repo.UpdateWorkload(ctx, id, *req.Hours); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workload")
		}
		internship.PartialWorkloadHours = *req.Hours
	} else {
		// Delta accumulation happens inside the UPDATE so concurrent
		// deltas never overwrite each other's reads.
		updated, err := s.repo.AdjustWorkload(ctx, id, *req.Delta)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workload")
		}
		if !updated {
			return nil, appErrors.Clone(appErrors.ErrInvalidWorkload, "")
		}
		internship, err = s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		previous = internship.PartialWorkloadHours - *req.Delta
	}
	total := internship.PartialWorkloadHours

	s.emitAudit(ctx, actorID, models.AuditActionWorkloadUpdate, id,
		map[string]interface{}{"partialWorkloadHours": previous},
		map[string]interface{}{"partialWorkloadHours": total, "note": req.Note})
	return detail(internship), nil
}

// RecordReport sets the report flag at the 1-based index. Re-applying the
// current value is a no-op.
func (s *InternshipService) RecordReport(ctx context.Context, id string, index int, req RecordReportRequest, actorID string) (*InternshipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if !models.ValidReportIndex(index) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report index must be between 1 and 10")
	}

	internship, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	attached := *req.Attached
	if internship.ReportFlags.Get(index) == attached {
		return detail(internship), nil
	}

	if err := s.repo.UpdateReport(ctx, id, index, attached); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record report")
	}
	internship.ReportFlags.Set(index, attached)

	s.emitAudit(ctx, actorID, models.AuditActionReportRecord, id, nil,
		map[string]interface{}{"reportIndex": index, "attached": attached})
	return detail(internship), nil
}

// Transition moves the internship along a legal lifecycle edge. The current
// row is re-read immediately before the conditional update so concurrent
// transitions cannot act on stale state.
func (s *InternshipService) Transition(ctx context.Context, id string, req TransitionRequest, actorID string) (*InternshipDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	internship, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := internship.Status
	target := req.Status
	if !legalTransition(from, target) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "")
	}
	if target == models.InternshipStatusActive {
		if internship.AdvisorID == nil || internship.StartDate == nil || internship.EndDate == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "advisor and dates must be set before activation")
		}
	}
	if from == models.InternshipStatusActive && target == models.InternshipStatusCompleted && !internship.WorkloadSatisfied() {
		return nil, appErrors.Clone(appErrors.ErrIncompleteWorkload, "")
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, target)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internship status")
	}
	if !updated {
		// Lost the race: the row no longer holds the status we validated.
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition, "internship status changed concurrently")
	}
	internship.Status = target

	s.emitAudit(ctx, actorID, models.AuditActionStatusTransition, id,
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": target})
	return detail(internship), nil
}

func (s *InternshipService) load(ctx context.Context, id string) (*models.Internship, error) {
	internship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	return internship, nil
}

func (s *InternshipService) emitAudit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "internship",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "internship-service",
	}
	if actorID != "" {
		log.ActorID = &actorID
	}
	if oldValues != nil {
		log.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		log.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// legalTransition encodes the lifecycle edges. Terminal states have no
// outgoing edges and self-transitions are never allowed.
func legalTransition(from, to models.InternshipStatus) bool {
	switch from {
	case models.InternshipStatusPending:
		return to == models.InternshipStatusActive || to == models.InternshipStatusCancelled
	case models.InternshipStatusActive:
		return to == models.InternshipStatusCompleted || to == models.InternshipStatusCancelled
	default:
		return false
	}
}

func detail(internship *models.Internship) *InternshipDetail {
	return &InternshipDetail{
		Internship:             *internship,
		RemainingWorkloadHours: internship.RemainingWorkload(),
		CompletedReports:       internship.ReportFlags.Count(),
	}
}
