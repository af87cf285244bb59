package dto

import (
	"time"

	"github.com/Deepee26/TMS/internal/models"
)

// TaskDTO represents a task in API responses, with the display names of the
// assignee and creator joined in.
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	DueDate        time.Time           `json:"due_date"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	AssignedTo     *uint64             `json:"assigned_to"`
	CreatedBy      uint64              `json:"created_by"`
	AssignedToName string              `json:"assigned_to_name,omitempty"`
	CreatedByName  string              `json:"created_by_name,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CommentDTO represents a task comment with its author's display name.
type CommentDTO struct {
	ID         uint64    `json:"id"`
	TaskID     uint64    `json:"task_id"`
	UserID     uint64    `json:"user_id"`
	Comment    string    `json:"comment"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Names only when the relation was preloaded
	if task.Assignee != nil {
		dto.AssignedToName = task.Assignee.FullName()
	}
	if task.Creator != nil {
		dto.CreatedByName = task.Creator.FullName()
	}

	return dto
}

// ToTaskDTOs converts a slice of Task models
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = ToTaskDTO(t)
	}
	return dtos
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Comment:   comment.Comment,
		CreatedAt: comment.CreatedAt,
	}
	if comment.User != nil {
		dto.AuthorName = comment.User.FullName()
	}
	return dto
}

// ToCommentDTOs converts a slice of TaskComment models
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = ToCommentDTO(c)
	}
	return dtos
}
