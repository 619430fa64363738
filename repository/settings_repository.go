package repository

import (
	"context"
	"errors"

	"github.com/RigelNana/vitalicio/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// Get returns nil, nil when no row exists under id.
	Get(ctx context.Context, id string) (*models.Settings, error)
	Upsert(ctx context.Context, rec *models.Settings) error
}

type SettingsRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) Get(ctx context.Context, id string) (*models.Settings, error) {
	var rec models.Settings
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SettingsRepositoryImpl) Upsert(ctx context.Context, rec *models.Settings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rec).Error
}
