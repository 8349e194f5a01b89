package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/model"
)

// EntryRepository journal entry data access
type EntryRepository interface {
	Create(ctx context.Context, e *model.Entry) error
	// GetByID loads the entry with its parent session
	GetByID(ctx context.Context, id string) (*model.Entry, error)
	// ListBySession returns entries oldest first, insertion order on ties
	ListBySession(ctx context.Context, sessionID string) ([]model.Entry, error)
	// Update writes content, emotion level and reflection only
	Update(ctx context.Context, e *model.Entry) error
	Delete(ctx context.Context, id string) error
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}

type entryRepo struct {
	db *gorm.DB
}

// NewEntryRepo creates an EntryRepository
func NewEntryRepo(db *gorm.DB) EntryRepository {
	return &entryRepo{db: db}
}

func (r *entryRepo) Create(ctx context.Context, e *model.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *entryRepo) GetByID(ctx context.Context, id string) (*model.Entry, error) {
	var e model.Entry
	err := r.db.WithContext(ctx).
		Preload("Session").
		Where("entry_id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Entry, error) {
	var entries []model.Entry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, seq ASC").
		Find(&entries).Error
	return entries, err
}

func (r *entryRepo) Update(ctx context.Context, e *model.Entry) error {
	return r.db.WithContext(ctx).
		Model(&model.Entry{}).
		Where("entry_id = ?", e.EntryID).
		Updates(map[string]interface{}{
			"content":       e.Content,
			"emotion_level": e.EmotionLevel,
			"reflection":    e.Reflection,
		}).Error
}

func (r *entryRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		Delete(&model.Entry{}).Error
}

func (r *entryRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.Entry{})
	return result.RowsAffected, result.Error
}

func (r *entryRepo) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SessionID string
		N         int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Entry{}).
		Select("session_id, COUNT(*) AS n").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.SessionID] = row.N
	}
	return counts, nil
}

func (r *entryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Entry{}).Count(&n).Error
	return n, err
}
