package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/repository"
	"github.com/Deepee26/TMS/internal/utils"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskFieldsRequired = errors.New("title, description, due date, priority and assignee are required")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrAssigneeNotFound   = errors.New("assigned user does not exist")
	ErrNotTaskAssignee    = errors.New("task is not assigned to you")
	ErrCommentRequired    = errors.New("comment is required")
)

// TaskService orchestrates tasks, their comments and the assignment rules.
type TaskService struct {
	taskRepo    repository.TaskRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, commentRepo repository.CommentRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
}

// TaskInput carries the full editable field set of a task. Every field is
// required; Status only applies to updates.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      models.TaskStatus
	Priority    models.TaskPriority
	AssignedTo  uint64
}

func (s *TaskService) validateInput(input TaskInput, requireStatus bool) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		input.DueDate.IsZero() ||
		input.Priority == "" ||
		input.AssignedTo == 0 {
		return ErrTaskFieldsRequired
	}
	if !input.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if requireStatus {
		if input.Status == "" {
			return ErrTaskFieldsRequired
		}
		if !input.Status.IsValid() {
			return ErrInvalidStatus
		}
	}

	if _, err := s.userRepo.FindByID(input.AssignedTo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}

	return nil
}

// CreateTask creates a task with the default pending status.
func (s *TaskService) CreateTask(input TaskInput, createdBy uint64) (*models.Task, error) {
	if err := s.validateInput(input, false); err != nil {
		return nil, err
	}

	assignedTo := input.AssignedTo
	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      models.TaskStatusPending,
		Priority:    input.Priority,
		AssignedTo:  &assignedTo,
		CreatedBy:   createdBy,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID)
}

// UpdateTask replaces every editable field of a task.
func (s *TaskService) UpdateTask(taskID uint64, input TaskInput) (*models.Task, error) {
	if err := s.validateInput(input, true); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	assignedTo := input.AssignedTo
	task.Title = strings.TrimSpace(input.Title)
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.Status = input.Status
	task.Priority = input.Priority
	task.AssignedTo = &assignedTo
	task.Assignee = nil
	task.Creator = nil

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID)
}

// UpdateStatus changes only the status. Admins may update any task; other
// users only tasks assigned to themselves. The ownership check uses the
// session identity, never anything supplied by the client.
func (s *TaskService) UpdateStatus(taskID, actorID uint64, actorRole models.Role, status models.TaskStatus) (*models.Task, error) {
	if status == "" || !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if actorRole != models.RoleAdmin {
		if task.AssignedTo == nil || *task.AssignedTo != actorID {
			return nil, ErrNotTaskAssignee
		}
	}

	updated, err := s.taskRepo.UpdateStatus(taskID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return updated, nil
}

// GetTask returns a task with assignee and creator loaded.
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// GetTaskDetail returns a task and its comments. Non-admin callers must be
// the assignee.
func (s *TaskService) GetTaskDetail(taskID, actorID uint64, actorRole models.Role) (*models.Task, []models.TaskComment, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, nil, err
	}

	if actorRole != models.RoleAdmin {
		if task.AssignedTo == nil || *task.AssignedTo != actorID {
			return nil, nil, ErrNotTaskAssignee
		}
	}

	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return task, comments, nil
}

// ListAll returns all tasks, newest first.
func (s *TaskService) ListAll(params utils.PaginationParams) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.ListAll(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListByUser returns the tasks assigned to a user.
func (s *TaskService) ListByUser(userID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListByStatus returns the tasks with the given status.
func (s *TaskService) ListByStatus(status models.TaskStatus) ([]models.Task, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	tasks, err := s.taskRepo.ListByStatus(status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListOverdue returns past-due tasks that are neither completed nor cancelled.
func (s *TaskService) ListOverdue() ([]models.Task, error) {
	tasks, err := s.taskRepo.ListOverdue()
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	return tasks, nil
}

// Statistics returns the aggregate task counters.
func (s *TaskService) Statistics() (*repository.TaskStatistics, error) {
	stats, err := s.taskRepo.Statistics()
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	return stats, nil
}

// DeleteTask removes a task and its comments.
func (s *TaskService) DeleteTask(taskID uint64) error {
	removed, err := s.taskRepo.Delete(taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !removed {
		return ErrTaskNotFound
	}
	return nil
}

// AddComment appends a comment to a task.
func (s *TaskService) AddComment(taskID, userID uint64, text string) (*models.TaskComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentRequired
	}

	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	comment := &models.TaskComment{
		TaskID:  taskID,
		UserID:  userID,
		Comment: text,
	}
	if err := s.commentRepo.Add(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return comment, nil
}
