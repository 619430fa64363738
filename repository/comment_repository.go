package repository

import (
	"github.com/RigelNana/vitalicio/models"
	"gorm.io/gorm"
)

// CommentRepository writes comments. They are read back with their material
// through MaterialRepository.ListWithComments.
type CommentRepository interface {
	BaseRepository[models.Comment]
}

type CommentRepositoryImpl struct {
	*BaseRepositoryImpl[models.Comment]
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Comment](db),
	}
}
