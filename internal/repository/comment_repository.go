package repository

import (
	"github.com/Deepee26/TMS/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Add appends a comment to a task
func (r *GormCommentRepository) Add(comment *models.TaskComment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return err
	}
	// Reload with the author for the response projection
	return r.db.Preload("User").First(comment, comment.ID).Error
}

// ListByTask retrieves a task's comments with authors, oldest first
func (r *GormCommentRepository) ListByTask(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	err := r.db.
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
