package service

import (
	"go.uber.org/zap"

	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	"github.com/DRegan-dev/downward/pkg/jwt"
	"github.com/DRegan-dev/downward/pkg/redis"
)

// Service aggregate of every service
type Service struct {
	Auth    AuthService
	Session SessionService
	Entry   EntryService
	Catalog CatalogService
	Stats   StatsService
	Export  ExportService
	User    UserService
	Authz   Authorizer
}

// NewService wires the services. rdb may be nil; token revocation and the
// dashboard cache are then disabled.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		cache     JSONCache
	)
	if rdb != nil {
		blacklist = rdb
		cache = rdb
	}

	bounds := EmotionBounds(&cfg.Journal)
	authz := NewSuperuserPolicy()

	return &Service{
		Auth:    NewAuthService(repo, jwtMgr, blacklist, logger),
		Session: NewSessionService(repo, bounds, cfg.Journal.HistoryPageSize, SystemClock, logger),
		Entry:   NewEntryService(repo, bounds, SystemClock, logger),
		Catalog: NewCatalogService(repo, authz, logger),
		Stats:   NewStatsService(repo, authz, cache, SystemClock, logger),
		Export:  NewExportService(repo, authz, SystemClock, logger),
		User:    NewUserService(repo, authz, cfg.Journal.HistoryPageSize, logger),
		Authz:   authz,
	}
}

// EmotionBounds the configured emotion range, DefaultEmotionRange when unset
// or outside what the entries table accepts
func EmotionBounds(cfg *config.JournalConfig) model.EmotionRange {
	if cfg == nil || cfg.EmotionMin < config.EmotionLevelFloor || cfg.EmotionMax < cfg.EmotionMin ||
		cfg.EmotionMax > config.EmotionLevelCeiling {
		return model.DefaultEmotionRange
	}
	return model.EmotionRange{Min: cfg.EmotionMin, Max: cfg.EmotionMax}
}
