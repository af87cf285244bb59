package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/Deepee26/TMS/internal/database"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// priorityRankOrder renders the enum rank from models.PriorityRank as a CASE
// expression so that "priority DESC" means urgent > high > medium > low
// rather than the lexical order of the labels.
func priorityRankOrder() string {
	ordered := []models.TaskPriority{
		models.TaskPriorityLow,
		models.TaskPriorityMedium,
		models.TaskPriorityHigh,
		models.TaskPriorityUrgent,
	}

	var b strings.Builder
	b.WriteString("CASE tasks.priority")
	for _, p := range ordered {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, models.PriorityRank[p])
	}
	b.WriteString(" ELSE 0 END DESC")
	return b.String()
}

// startOfToday returns local midnight, the boundary for overdue checks.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// overdueScope holds the single definition of "overdue" so that ListOverdue
// and Statistics can never disagree.
func overdueScope(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.due_date < ? AND tasks.status NOT IN ?",
		startOfToday(),
		[]models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled})
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with assignee and creator loaded
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.
		Preload("Assignee").
		Preload("Creator").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListAll retrieves all tasks newest-created-first with pagination
func (r *GormTaskRepository) ListAll(params utils.PaginationParams) ([]models.Task, int64, error) {
	var total int64
	if err := r.db.Model(&models.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := r.db.
		Preload("Assignee").
		Preload("Creator").
		Order("tasks.created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByUser retrieves tasks assigned to a user, due date ascending then
// priority rank descending
func (r *GormTaskRepository) ListByUser(userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignee").
		Preload("Creator").
		Where("tasks.assigned_to = ?", userID).
		Order("tasks.due_date ASC").
		Order(priorityRankOrder()).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByStatus retrieves tasks with the given status, due date ascending
func (r *GormTaskRepository) ListByStatus(status models.TaskStatus) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignee").
		Preload("Creator").
		Where("tasks.status = ?", status).
		Order("tasks.due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOverdue retrieves tasks past due that are neither completed nor cancelled
func (r *GormTaskRepository) ListOverdue() ([]models.Task, error) {
	var tasks []models.Task
	err := overdueScope(r.db).
		Preload("Assignee").
		Preload("Creator").
		Order("tasks.due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update saves a full task row, touching updated_at
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdateStatus updates only the status of a task
func (r *GormTaskRepository) UpdateStatus(id uint64, status models.TaskStatus) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}

	task.Status = status

	if err := r.db.Save(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task and its comments within one transaction
func (r *GormTaskRepository) Delete(id uint64) (bool, error) {
	removed := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Task{}, id)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

// Statistics returns the aggregate counters in a single query. The overdue
// counter shares its predicate with ListOverdue.
func (r *GormTaskRepository) Statistics() (*TaskStatistics, error) {
	var stats TaskStatistics
	err := r.db.Model(&models.Task{}).
		Select(`COUNT(*) AS total_tasks,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_tasks,
			COUNT(CASE WHEN status = 'in_progress' THEN 1 END) AS in_progress_tasks,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed_tasks,
			COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled_tasks,
			COUNT(CASE WHEN due_date < ? AND status NOT IN ('completed', 'cancelled') THEN 1 END) AS overdue_tasks`,
			startOfToday()).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
