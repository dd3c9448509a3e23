package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/school-backoffice-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardStore interface {
	CountEnquiriesByStatus(ctx context.Context) (map[models.EnquiryStatus]int, error)
	CountPendingRegistrations(ctx context.Context) (int, error)
	CountStudentsByStatus(ctx context.Context) (map[models.StudentStatus]int, error)
	CountActiveEmployees(ctx context.Context) (int, error)
}

type feeCollectionReader interface {
	SumPaidBetween(ctx context.Context, from, to time.Time) (float64, error)
}

// DashboardService assembles the landing page summary, cached in Redis for a
// short TTL.
type DashboardService struct {
	repo   dashboardStore
	fees   feeCollectionReader
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardStore, fees feeCollectionReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, fees: fees, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the intake funnel counts and current-month fee collection.
// A cached copy is served when present; otherwise the counts are computed and
// cached best-effort.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.buildSummary(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}

// InvalidateCache drops the cached summary so the next read recomputes.
func (s *DashboardService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, dashboardCacheKey)
}

func (s *DashboardService) buildSummary(ctx context.Context) (*models.DashboardSummary, error) {
	enquiries, err := s.repo.CountEnquiriesByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enquiries")
	}
	pending, err := s.repo.CountPendingRegistrations(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	students, err := s.repo.CountStudentsByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	employees, err := s.repo.CountActiveEmployees(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count employees")
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)
	collected, err := s.fees.SumPaidBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum fee collection")
	}

	return &models.DashboardSummary{
		EnquiriesByStatus:    enquiries,
		PendingRegistrations: pending,
		StudentsByStatus:     students,
		ActiveEmployees:      employees,
		FeesCollectedMonth:   collected,
		GeneratedAt:          now,
	}, nil
}
