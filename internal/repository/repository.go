package repository

import (
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create persists a new user. The password must already be hashed.
	Create(user *models.User) error

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// List retrieves users newest-first with pagination
	List(params utils.PaginationParams) ([]models.User, int64, error)

	// ListAssignable lists verified non-admin users for task assignment
	ListAssignable() ([]models.User, error)

	// Update applies the admin-editable fields
	Update(id uint64, firstName, lastName string, role models.Role, isVerified bool) (*models.User, error)

	// UpdateProfile applies the self-service profile fields
	UpdateProfile(id uint64, firstName, lastName, email string) (*models.User, error)

	// ToggleVerification flips is_verified and returns the updated user
	ToggleVerification(id uint64) (*models.User, error)

	// UpdatePassword stores a new password hash
	UpdatePassword(id uint64, passwordHash string) error

	// Delete removes a user and reports whether a row was removed.
	// Tasks assigned to the user lose their assignee; tasks the user
	// created are removed along with their comments.
	Delete(id uint64) (bool, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with assignee and creator loaded
	FindByID(id uint64) (*models.Task, error)

	// ListAll retrieves all tasks newest-created-first with pagination
	ListAll(params utils.PaginationParams) ([]models.Task, int64, error)

	// ListByUser retrieves tasks assigned to a user, due date ascending
	// then priority rank descending
	ListByUser(userID uint64) ([]models.Task, error)

	// ListByStatus retrieves tasks with the given status, due date ascending
	ListByStatus(status models.TaskStatus) ([]models.Task, error)

	// ListOverdue retrieves tasks past due that are neither completed nor
	// cancelled, due date ascending
	ListOverdue() ([]models.Task, error)

	// Update saves a full task row, touching updated_at
	Update(task *models.Task) error

	// UpdateStatus updates only the status of a task
	UpdateStatus(id uint64, status models.TaskStatus) (*models.Task, error)

	// Delete removes a task and its comments, reporting whether a row was removed
	Delete(id uint64) (bool, error)

	// Statistics returns the aggregate counters in a single query
	Statistics() (*TaskStatistics, error)
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	// Add appends a comment to a task
	Add(comment *models.TaskComment) error

	// ListByTask retrieves a task's comments with authors, oldest first
	ListByTask(taskID uint64) ([]models.TaskComment, error)
}

// TaskStatistics is the single aggregate row backing the dashboards. The
// overdue counter uses the same predicate as TaskRepository.ListOverdue.
type TaskStatistics struct {
	TotalTasks      int64 `json:"total_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	CancelledTasks  int64 `json:"cancelled_tasks"`
	OverdueTasks    int64 `json:"overdue_tasks"`
}
