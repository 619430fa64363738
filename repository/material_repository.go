package repository

import (
	"context"

	"github.com/RigelNana/vitalicio/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository interface {
	BaseRepository[models.Material]
	// ListWithComments returns every material, newest first, each with its
	// comments in chronological order.
	ListWithComments(ctx context.Context) ([]models.Material, error)
	IncrementViews(ctx context.Context, id string, delta int64) error
	// AddReader appends userID to read_by unless it is already there. The
	// read and the write share a row lock so concurrent readers never drop
	// each other.
	AddReader(ctx context.Context, id, userID string) error
}

type MaterialRepositoryImpl struct {
	*BaseRepositoryImpl[models.Material]
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &MaterialRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Material](db),
	}
}

func (r *MaterialRepositoryImpl) ListWithComments(ctx context.Context) ([]models.Material, error) {
	var materials []models.Material
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) IncrementViews(ctx context.Context, id string, delta int64) error {
	result := r.db.WithContext(ctx).Model(&models.Material{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("COALESCE(views, 0) + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MaterialRepositoryImpl) AddReader(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Material
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "read_by").
			First(&m, "id = ?", id).Error
		if err != nil {
			return err
		}
		if m.IsReadBy(userID) {
			return nil
		}
		readBy := append(append([]string{}, m.ReadBy...), userID)
		return tx.Model(&models.Material{}).
			Where("id = ?", id).
			UpdateColumn("read_by", models.NewReadBy(readBy)).Error
	})
}
