package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	"github.com/DRegan-dev/downward/pkg/redis"
)

const (
	dashboardCacheKey = "stats:dashboard"
	dashboardCacheTTL = 30 * time.Second
	recentSessions    = 5
)

// JSONCache short-lived cache for computed views
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// StatsService admin overview; every call requires CapViewStats
type StatsService interface {
	Dashboard(ctx context.Context, actor Actor) (*dto.DashboardResponse, error)
	AllSessions(ctx context.Context, actor Actor, req *dto.PaginationRequest) ([]dto.AdminSessionRow, int64, error)
}

type statsService struct {
	repo   *repository.Repository
	authz  Authorizer
	cache  JSONCache // nil disables caching
	now    Clock
	logger *zap.Logger
}

// NewStatsService creates a StatsService. cache may be nil.
func NewStatsService(repo *repository.Repository, authz Authorizer, cache JSONCache, clock Clock, logger *zap.Logger) StatsService {
	if clock == nil {
		clock = SystemClock
	}
	return &statsService{repo: repo, authz: authz, cache: cache, now: clock, logger: logger}
}

// ────────────────────── Dashboard ──────────────────────

func (s *statsService) Dashboard(ctx context.Context, actor Actor) (*dto.DashboardResponse, error) {
	if err := s.authz.Require(actor, CapViewStats); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached dto.DashboardResponse
		err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("read dashboard cache failed", zap.Error(err))
		}
	}

	resp, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, resp, dashboardCacheTTL); err != nil {
			s.logger.Warn("write dashboard cache failed", zap.Error(err))
		}
	}
	return resp, nil
}

func (s *statsService) computeDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{GeneratedAt: formatTime(s.now())}

	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
		dst   *int64
	}{
		{"users", s.repo.User.Count, &resp.TotalUsers},
		{"entries", s.repo.Entry.Count, &resp.TotalEntries},
		{"descent_types", s.repo.DescentType.Count, &resp.DescentTypes},
		{"rituals", s.repo.Ritual.Count, &resp.Rituals},
	}
	for _, c := range counters {
		n, err := c.count(ctx)
		if err != nil {
			s.logger.Error("count failed", zap.String("table", c.name), zap.Error(err))
			return nil, err
		}
		*c.dst = n
	}

	statusCounts, err := s.repo.Stats.SessionStatusCounts(ctx)
	if err != nil {
		s.logger.Error("count sessions by status failed", zap.Error(err))
		return nil, err
	}
	for _, sc := range statusCounts {
		resp.TotalSessions += sc.N
		switch sc.Status {
		case model.StatusStarted, model.StatusInProgress:
			resp.ActiveSessions += sc.N
		case model.StatusCompleted:
			resp.CompletedSessions += sc.N
		case model.StatusAbandoned:
			resp.AbandonedSessions += sc.N
		}
	}

	recent, _, err := s.repo.Session.ListAll(ctx, 0, recentSessions)
	if err != nil {
		s.logger.Error("list recent sessions failed", zap.Error(err))
		return nil, err
	}
	resp.RecentSessions = s.toRows(recent)

	perType, err := s.repo.Stats.PerDescentType(ctx)
	if err != nil {
		s.logger.Error("aggregate by descent type failed", zap.Error(err))
		return nil, err
	}
	resp.ByDescentType = make([]dto.DescentTypeStats, 0, len(perType))
	for _, agg := range perType {
		resp.ByDescentType = append(resp.ByDescentType, dto.DescentTypeStats{
			DescentTypeID: agg.DescentTypeID,
			Name:          agg.Name,
			Sessions:      agg.Sessions,
			Completed:     agg.Completed,
			Abandoned:     agg.Abandoned,
			Entries:       agg.Entries,
			AvgEmotion:    agg.AvgEmotion,
		})
	}
	return resp, nil
}

// ────────────────────── AllSessions ──────────────────────

func (s *statsService) AllSessions(ctx context.Context, actor Actor, req *dto.PaginationRequest) ([]dto.AdminSessionRow, int64, error) {
	if err := s.authz.Require(actor, CapViewStats); err != nil {
		return nil, 0, err
	}

	sessions, total, err := s.repo.Session.ListAll(ctx, req.GetOffset(0), req.GetPageSize(0))
	if err != nil {
		s.logger.Error("list all sessions failed", zap.Error(err))
		return nil, 0, err
	}
	return s.toRows(sessions), total, nil
}

func (s *statsService) toRows(sessions []model.DescentSession) []dto.AdminSessionRow {
	now := s.now()
	rows := make([]dto.AdminSessionRow, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		row := dto.AdminSessionRow{
			ID:              sess.SessionID,
			Status:          string(sess.Status),
			StartedAt:       formatTime(sess.StartedAt),
			DurationSeconds: int64(sess.Duration(now) / time.Second),
		}
		if sess.User != nil {
			row.Username = sess.User.Username
		}
		if sess.DescentType != nil {
			row.DescentType = sess.DescentType.Name
		}
		rows = append(rows, row)
	}
	return rows
}
