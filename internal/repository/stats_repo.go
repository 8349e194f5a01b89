package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/model"
)

// StatusCount sessions per status
type StatusCount struct {
	Status model.SessionStatus
	N      int64
}

// DescentTypeAggregate session and entry totals for one descent type
type DescentTypeAggregate struct {
	DescentTypeID string
	Name          string
	Sessions      int64
	Completed     int64
	Abandoned     int64
	Entries       int64
	AvgEmotion    float64
}

// StatsRepository read-only aggregate queries for the admin dashboard
type StatsRepository interface {
	SessionStatusCounts(ctx context.Context) ([]StatusCount, error)
	PerDescentType(ctx context.Context) ([]DescentTypeAggregate, error)
}

type statsRepo struct {
	db *gorm.DB
}

// NewStatsRepo creates a StatsRepository
func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) SessionStatusCounts(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.DescentSession{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

const perDescentTypeSQL = `
SELECT dt.descent_type_id,
       dt.name,
       COUNT(DISTINCT s.session_id)                                           AS sessions,
       COUNT(DISTINCT s.session_id) FILTER (WHERE s.status = 'COMPLETED')     AS completed,
       COUNT(DISTINCT s.session_id) FILTER (WHERE s.status = 'ABANDONED')     AS abandoned,
       COUNT(e.entry_id)                                                      AS entries,
       COALESCE(AVG(e.emotion_level), 0)                                      AS avg_emotion
FROM descent_types dt
LEFT JOIN descent_sessions s ON s.descent_type_id = dt.descent_type_id
LEFT JOIN entries e ON e.session_id = s.session_id
WHERE dt.deleted_at IS NULL OR s.session_id IS NOT NULL
GROUP BY dt.descent_type_id, dt.name
ORDER BY sessions DESC, dt.name ASC`

func (r *statsRepo) PerDescentType(ctx context.Context) ([]DescentTypeAggregate, error) {
	var rows []DescentTypeAggregate
	err := r.db.WithContext(ctx).Raw(perDescentTypeSQL).Scan(&rows).Error
	return rows, err
}
