package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/model"
)

// DescentTypeRepository descent type data access. Soft-deleted rows are
// invisible to every method.
type DescentTypeRepository interface {
	Create(ctx context.Context, dt *model.DescentType) error
	GetByID(ctx context.Context, id string) (*model.DescentType, error)
	List(ctx context.Context, includeInactive bool) ([]model.DescentType, error)
	Update(ctx context.Context, dt *model.DescentType) error
	Delete(ctx context.Context, id string, deletedBy string) error
	Count(ctx context.Context) (int64, error)
}

type descentTypeRepo struct {
	db *gorm.DB
}

// NewDescentTypeRepo creates a DescentTypeRepository
func NewDescentTypeRepo(db *gorm.DB) DescentTypeRepository {
	return &descentTypeRepo{db: db}
}

func (r *descentTypeRepo) Create(ctx context.Context, dt *model.DescentType) error {
	return r.db.WithContext(ctx).Create(dt).Error
}

func (r *descentTypeRepo) GetByID(ctx context.Context, id string) (*model.DescentType, error) {
	var dt model.DescentType
	err := r.db.WithContext(ctx).
		Where("descent_type_id = ?", id).
		First(&dt).Error
	if err != nil {
		return nil, err
	}
	return &dt, nil
}

func (r *descentTypeRepo) List(ctx context.Context, includeInactive bool) ([]model.DescentType, error) {
	var types []model.DescentType
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&types).Error
	return types, err
}

func (r *descentTypeRepo) Update(ctx context.Context, dt *model.DescentType) error {
	return r.db.WithContext(ctx).Save(dt).Error
}

func (r *descentTypeRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.DescentType{}).
		Where("descent_type_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *descentTypeRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DescentType{}).Count(&n).Error
	return n, err
}
