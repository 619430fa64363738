package repository

import (
	"context"
	"strings"

	"github.com/RigelNana/vitalicio/models"
	"gorm.io/gorm"
)

type AccountRepository interface {
	BaseRepository[models.Account]
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

type AccountRepositoryImpl struct {
	*BaseRepositoryImpl[models.Account]
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{BaseRepositoryImpl: NewBaseRepository[models.Account](db)}
}

func (r *AccountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
