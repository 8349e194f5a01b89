package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every repository
type Repository struct {
	db *gorm.DB

	User        UserRepository
	DescentType DescentTypeRepository
	Session     SessionRepository
	Entry       EntryRepository
	Ritual      RitualRepository
	Stats       StatsRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		User:        NewUserRepo(db),
		DescentType: NewDescentTypeRepo(db),
		Session:     NewSessionRepo(db),
		Entry:       NewEntryRepo(db),
		Ritual:      NewRitualRepo(db),
		Stats:       NewStatsRepo(db),
	}
}

// BeginTx starts a transaction. A Repository assembled by hand (tests) has no
// connection and returns a nil tx; callers treat nil as "no transaction".
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns a Repository whose repositories all run on tx
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
