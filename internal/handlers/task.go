package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Deepee26/TMS/internal/dto"
	apierrors "github.com/Deepee26/TMS/internal/errors"
	"github.com/Deepee26/TMS/internal/middleware"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/services"
	"github.com/Deepee26/TMS/internal/utils"
)

// TaskHandler serves both the admin task CRUD and the assignee-facing views.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// TaskRequest carries the editable task fields. Every field is required;
// status only applies to full updates.
type TaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	DueDate     string `json:"due_date" binding:"required"`
	Status      string `json:"status"`
	Priority    string `json:"priority" binding:"required"`
	AssignedTo  uint64 `json:"assigned_to" binding:"required"`
}

// parseDueDate accepts a plain date or a full timestamp.
func parseDueDate(value string) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseTaskID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// Dashboard returns all tasks, the aggregate statistics and any pending
// flash messages.
func (h *TaskHandler) Dashboard(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListAll(params)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	stats, err := h.taskService.Statistics()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":    dto.ToTaskDTOs(tasks),
		"stats":    stats,
		"messages": utils.ConsumeFlashes(c),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListTasks returns all tasks, optionally filtered by ?status=.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	if status := c.Query("status"); status != "" {
		tasks, err := h.taskService.ListByStatus(models.TaskStatus(status))
		if err != nil {
			respondTaskError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.taskService.ListAll(params)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListTasksByStatus returns tasks with the status from the URL, together
// with the statistics the dashboard shows next to the filter.
func (h *TaskHandler) ListTasksByStatus(c *gin.Context) {
	status := models.TaskStatus(c.Param("status"))

	tasks, err := h.taskService.ListByStatus(status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	stats, err := h.taskService.Statistics()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":  dto.ToTaskDTOs(tasks),
		"stats":  stats,
		"status": status,
	})
}

// ListOverdueTasks returns past-due tasks that are neither completed nor
// cancelled.
func (h *TaskHandler) ListOverdueTasks(c *gin.Context) {
	tasks, err := h.taskService.ListOverdue()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	stats, err := h.taskService.Statistics()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
		"stats": stats,
	})
}

// CreateTask creates a new task assigned to an existing user.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All fields are required")
		return
	}

	dueDate, ok := parseDueDate(req.DueDate)
	if !ok {
		apierrors.BadRequest(c, "Invalid due date")
		return
	}

	task, err := h.taskService.CreateTask(services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    models.TaskPriority(req.Priority),
		AssignedTo:  req.AssignedTo,
	}, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.AddFlash(c, "success", "Task created successfully")
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its comments.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, comments, err := h.taskService.GetTaskDetail(taskID, userID, middleware.GetRole(c))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":     dto.ToTaskDTO(*task),
		"comments": dto.ToCommentDTOs(comments),
	})
}

// UpdateTask replaces every editable field of a task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All fields are required")
		return
	}
	if req.Status == "" {
		apierrors.BadRequest(c, "All fields are required")
		return
	}

	dueDate, parsed := parseDueDate(req.DueDate)
	if !parsed {
		apierrors.BadRequest(c, "Invalid due date")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.AddFlash(c, "success", "Task updated successfully")
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus changes only the status of a task. Non-admin callers must
// be the assignee; the check runs against the session identity.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type StatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Status is required")
		return
	}

	task, err := h.taskService.UpdateStatus(taskID, userID, middleware.GetRole(c), models.TaskStatus(req.Status))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task status updated successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// DeleteTask removes a task and its comments.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	utils.AddFlash(c, "success", "Task deleted successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AddComment appends a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CommentRequest struct {
		Comment string `json:"comment" binding:"required"`
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Comment is required")
		return
	}

	comment, err := h.taskService.AddComment(taskID, userID, req.Comment)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UserDashboard returns the caller's assigned tasks, the statistics and any
// pending flash messages.
func (h *TaskHandler) UserDashboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListByUser(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	stats, err := h.taskService.Statistics()
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":    dto.ToTaskDTOs(tasks),
		"stats":    stats,
		"messages": utils.ConsumeFlashes(c),
	})
}

// UserTasks returns the caller's assigned tasks ordered by due date then
// priority rank.
func (h *TaskHandler) UserTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.ListByUser(userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskFieldsRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrCommentRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotTaskAssignee):
		apierrors.Forbidden(c, "Access denied")
	default:
		logrus.WithError(err).Error("task request failed")
		apierrors.InternalError(c, "")
	}
}
