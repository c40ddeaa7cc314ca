package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack-io/internship-api/internal/dto"
	"github.com/edutrack-io/internship-api/internal/models"
	appErrors "github.com/edutrack-io/internship-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type internshipCounter interface {
	CountByStatus(ctx context.Context) (map[models.InternshipStatus]int, error)
	CountActiveExpiringBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type alertCounter interface {
	CountOpenBySeverity(ctx context.Context) (map[models.AlertSeverity]int, error)
}

// DashboardService composes the coordinator summary payload with a short-TTL
// cache in front of the aggregate queries.
type DashboardService struct {
	internships internshipCounter
	alerts      alertCounter
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs DashboardService. cache may be nil.
func NewDashboardService(internships internshipCounter, alerts alertCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		internships: internships,
		alerts:      alerts,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary returns the dashboard payload and whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	statusCounts, err := s.internships.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count internships")
	}
	cutoff := s.now().UTC().Add(time.Duration(lowSeverityDays) * 24 * time.Hour)
	expiring, err := s.internships.CountActiveExpiringBefore(ctx, cutoff)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count expiring internships")
	}
	severityCounts, err := s.alerts.CountOpenBySeverity(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open alerts")
	}

	total := 0
	for _, count := range statusCounts {
		total += count
	}
	open := 0
	for _, count := range severityCounts {
		open += count
	}

	payload := &dto.DashboardResponse{
		Internships: dto.InternshipSection{
			Total:        total,
			Pending:      statusCounts[models.InternshipStatusPending],
			Active:       statusCounts[models.InternshipStatusActive],
			Completed:    statusCounts[models.InternshipStatusCompleted],
			Cancelled:    statusCounts[models.InternshipStatusCancelled],
			ExpiringSoon: expiring,
		},
		Alerts: dto.AlertSection{
			Open:   open,
			High:   severityCounts[models.AlertSeverityHigh],
			Medium: severityCounts[models.AlertSeverityMedium],
			Low:    severityCounts[models.AlertSeverityLow],
		},
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return payload, false, nil
}
