package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DRegan-dev/downward/internal/model"
	pkgerrors "github.com/DRegan-dev/downward/pkg/errors"
)

// SessionRepository descent session data access
type SessionRepository interface {
	Create(ctx context.Context, s *model.DescentSession) error
	GetByID(ctx context.Context, id string) (*model.DescentSession, error)
	// GetByIDForUpdate reads the row with SELECT ... FOR UPDATE. Only
	// meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*model.DescentSession, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.DescentSession, int64, error)
	ListAllByUser(ctx context.Context, userID string) ([]model.DescentSession, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.DescentSession, int64, error)
	// Update writes status, lifecycle timestamps and notes, guarded by Version
	Update(ctx context.Context, s *model.DescentSession) error
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo creates a SessionRepository
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

// withDescentType preloads the descent type even when it has been soft-deleted,
// so old sessions keep their label.
func withDescentType(db *gorm.DB) *gorm.DB {
	return db.Preload("DescentType", func(tx *gorm.DB) *gorm.DB {
		return tx.Unscoped()
	})
}

func (r *sessionRepo) Create(ctx context.Context, s *model.DescentSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.DescentSession, error) {
	var s model.DescentSession
	err := withDescentType(r.db.WithContext(ctx)).
		Where("session_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.DescentSession, error) {
	var s model.DescentSession
	err := withDescentType(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.DescentSession, int64, error) {
	var sessions []model.DescentSession
	var total int64

	db := r.db.WithContext(ctx).Model(&model.DescentSession{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := withDescentType(db).
		Order("started_at DESC, session_id DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *sessionRepo) ListAllByUser(ctx context.Context, userID string) ([]model.DescentSession, error) {
	var sessions []model.DescentSession
	err := withDescentType(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("started_at DESC, session_id DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListAll(ctx context.Context, offset, limit int) ([]model.DescentSession, int64, error) {
	var sessions []model.DescentSession
	var total int64

	db := r.db.WithContext(ctx).Model(&model.DescentSession{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := withDescentType(db).
		Preload("User").
		Order("started_at DESC, session_id DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *sessionRepo) Update(ctx context.Context, s *model.DescentSession) error {
	oldVersion := s.Version
	result := r.db.WithContext(ctx).
		Model(&model.DescentSession{}).
		Where("session_id = ? AND version = ?", s.SessionID, oldVersion).
		Updates(map[string]interface{}{
			"status":       s.Status,
			"completed_at": s.CompletedAt,
			"abandoned_at": s.AbandonedAt,
			"notes":        s.Notes,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version = oldVersion + 1
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		Delete(&model.DescentSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
