package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/observability/metrics"
	"github.com/yourorg/jobboard/internal/security"
)

// DashboardService aggregates hiring metrics for hr. Counts are computed at
// query time; nothing is cached.
type DashboardService struct {
	jobs   domain.JobRepository
	apps   domain.ApplicationRepository
	authz  *security.AuthorizationService
	logger *slog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	jobs domain.JobRepository,
	apps domain.ApplicationRepository,
	authz *security.AuthorizationService,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{jobs: jobs, apps: apps, authz: authz, logger: logger}
}

// HRDashboard is the hr aggregate view.
type HRDashboard struct {
	OpenPositions     int                `json:"openPositions"`
	TotalApplications int                `json:"totalApplications"`
	StageDistribution domain.StageCounts `json:"stageDistribution"`
}

// GetHRDashboard returns open job count, total application count and the
// stage distribution across all applications. hr only.
func (s *DashboardService) GetHRDashboard(ctx context.Context, user *domain.User) (*HRDashboard, error) {
	if err := s.authz.RequireRole(user, security.OpViewDashboard); err != nil {
		return nil, err
	}

	openPositions, err := s.jobs.CountByStatus(ctx, domain.JobStatusOpen)
	if err != nil {
		return nil, domain.Internal("failed to count open jobs", err)
	}
	metrics.SetOpenJobs(openPositions)

	totalApplications, err := s.apps.CountAll(ctx)
	if err != nil {
		return nil, domain.Internal("failed to count applications", err)
	}

	distribution, err := s.apps.StageDistribution(ctx)
	if err != nil {
		return nil, domain.Internal("failed to compute stage distribution", err)
	}

	return &HRDashboard{
		OpenPositions:     openPositions,
		TotalApplications: totalApplications,
		StageDistribution: distribution,
	}, nil
}
