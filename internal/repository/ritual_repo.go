package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/model"
)

// RitualRepository ritual data access
type RitualRepository interface {
	Create(ctx context.Context, ritual *model.Ritual) error
	GetByID(ctx context.Context, id string) (*model.Ritual, error)
	// List filters by descent type and phase when non-empty; PRE, DURING, POST order
	List(ctx context.Context, descentTypeID string, phase model.RitualPhase) ([]model.Ritual, error)
	Update(ctx context.Context, ritual *model.Ritual) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type ritualRepo struct {
	db *gorm.DB
}

// NewRitualRepo creates a RitualRepository
func NewRitualRepo(db *gorm.DB) RitualRepository {
	return &ritualRepo{db: db}
}

func (r *ritualRepo) Create(ctx context.Context, ritual *model.Ritual) error {
	return r.db.WithContext(ctx).Create(ritual).Error
}

func (r *ritualRepo) GetByID(ctx context.Context, id string) (*model.Ritual, error) {
	var ritual model.Ritual
	err := r.db.WithContext(ctx).
		Where("ritual_id = ?", id).
		First(&ritual).Error
	if err != nil {
		return nil, err
	}
	return &ritual, nil
}

func (r *ritualRepo) List(ctx context.Context, descentTypeID string, phase model.RitualPhase) ([]model.Ritual, error) {
	var rituals []model.Ritual
	db := r.db.WithContext(ctx)

	if descentTypeID != "" {
		db = db.Where("descent_type_id = ?", descentTypeID)
	}
	if phase != "" {
		db = db.Where("phase = ?", phase)
	}

	err := db.
		Order("CASE phase WHEN 'PRE' THEN 1 WHEN 'DURING' THEN 2 ELSE 3 END, name ASC").
		Find(&rituals).Error
	return rituals, err
}

func (r *ritualRepo) Update(ctx context.Context, ritual *model.Ritual) error {
	return r.db.WithContext(ctx).Save(ritual).Error
}

func (r *ritualRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("ritual_id = ?", id).
		Delete(&model.Ritual{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ritualRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ritual{}).Count(&n).Error
	return n, err
}
