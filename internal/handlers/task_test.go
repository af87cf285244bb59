package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Deepee26/TMS/internal/constants"
	"github.com/Deepee26/TMS/internal/middleware"
	"github.com/Deepee26/TMS/internal/models"
	"github.com/Deepee26/TMS/internal/notifier"
	"github.com/Deepee26/TMS/internal/repository"
	"github.com/Deepee26/TMS/internal/services"
)

type taskTestEnv struct {
	db          *gorm.DB
	taskService *services.TaskService
	handler     *TaskHandler
	admin       *models.User
	assignee    *models.User
	other       *models.User
}

func setupTaskTestEnv(t *testing.T) taskTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskComment{},
	)
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)
	taskService := services.NewTaskService(taskRepo, commentRepo, userRepo)
	handler := NewTaskHandler(taskService)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	assignee := createTestUser(t, db, "worker@example.com", models.RoleUser)
	other := createTestUser(t, db, "other@example.com", models.RoleUser)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return taskTestEnv{
		db:          db,
		taskService: taskService,
		handler:     handler,
		admin:       admin,
		assignee:    assignee,
		other:       other,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:      email,
		Password:   string(hashed),
		FirstName:  "Test",
		LastName:   "User",
		Role:       role,
		IsVerified: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// injectIdentity mimics what RequireAuth stores in the context after a
// successful session lookup.
func injectIdentity(userID uint64, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.SessionKeyUserID, userID)
		c.Set(constants.SessionKeyRole, string(role))
		c.Next()
	}
}

func newTaskRouter(env taskTestEnv, userID uint64, role models.Role) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(injectIdentity(userID, role))

	r.GET("/tasks", env.handler.ListTasks)
	r.POST("/tasks", env.handler.CreateTask)
	r.GET("/tasks/overdue", env.handler.ListOverdueTasks)
	r.GET("/tasks/status/:status", env.handler.ListTasksByStatus)
	r.GET("/tasks/:id", env.handler.GetTask)
	r.PUT("/tasks/:id", env.handler.UpdateTask)
	r.PATCH("/tasks/:id/status", env.handler.UpdateTaskStatus)
	r.DELETE("/tasks/:id", env.handler.DeleteTask)
	r.POST("/tasks/:id/comments", env.handler.AddComment)
	r.GET("/dashboard", env.handler.Dashboard)
	r.GET("/my/tasks", env.handler.UserTasks)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTaskHandler_CreateTask(t *testing.T) {
	env := setupTaskTestEnv(t)
	r := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, r, "/tasks", map[string]any{
		"title":       "Prepare release notes",
		"description": "Summarize the changes for the next release",
		"due_date":    "2026-09-15",
		"priority":    "high",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)
	require.Equal(t, models.TaskStatusPending, task.Status, "new tasks always start pending")
	require.Equal(t, env.admin.ID, task.CreatedBy)
	require.NotNil(t, task.AssignedTo)
	require.Equal(t, env.assignee.ID, *task.AssignedTo)
}

func TestTaskHandler_CreateTask_UnknownAssignee(t *testing.T) {
	env := setupTaskTestEnv(t)
	r := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, r, "/tasks", map[string]any{
		"title":       "Prepare release notes",
		"description": "Summarize the changes",
		"due_date":    "2026-09-15",
		"priority":    "high",
		"assigned_to": 9999,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_CreateTask_InvalidPriority(t *testing.T) {
	env := setupTaskTestEnv(t)
	r := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, r, "/tasks", map[string]any{
		"title":       "Prepare release notes",
		"description": "Summarize the changes",
		"due_date":    "2026-09-15",
		"priority":    "critical",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_StatusLifecycleAndStats(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Fix login redirect",
		"description": "Session cookie is dropped on redirect",
		"due_date":    "2026-09-10",
		"priority":    "urgent",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	stats, err := env.taskService.Statistics()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalTasks)
	require.Equal(t, int64(1), stats.PendingTasks)
	require.Equal(t, int64(0), stats.CompletedTasks)

	// The assignee moves it through the lifecycle
	assignee := newTaskRouter(env, env.assignee.ID, models.RoleUser)
	w = patchJSON(t, assignee, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = patchJSON(t, assignee, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stats, err = env.taskService.Statistics()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalTasks)
	require.Equal(t, int64(0), stats.PendingTasks)
	require.Equal(t, int64(1), stats.CompletedTasks)
}

func TestTaskHandler_UpdateStatus_NotAssignee(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Rotate API keys",
		"description": "Quarterly rotation",
		"due_date":    "2026-09-20",
		"priority":    "medium",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	// A different non-admin user cannot touch the status
	other := newTaskRouter(env, env.other.ID, models.RoleUser)
	w = patchJSON(t, other, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// An admin who is not the assignee can
	w = patchJSON(t, admin, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{
		"status": "cancelled",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&task, task.ID).Error)
	require.Equal(t, models.TaskStatusCancelled, task.Status)
}

func TestTaskHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Archive old logs",
		"description": "Everything older than a year",
		"due_date":    "2026-09-20",
		"priority":    "low",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	w = patchJSON(t, admin, fmt.Sprintf("/tasks/%d/status", task.ID), map[string]any{
		"status": "done",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Draft onboarding doc",
		"description": "First pass",
		"due_date":    "2026-09-20",
		"priority":    "low",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	w = putJSON(t, admin, fmt.Sprintf("/tasks/%d", task.ID), map[string]any{
		"title":       "Draft onboarding doc",
		"description": "Second pass with screenshots",
		"due_date":    "2026-09-25",
		"status":      "in_progress",
		"priority":    "high",
		"assigned_to": env.other.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&task, task.ID).Error)
	require.Equal(t, "Second pass with screenshots", task.Description)
	require.Equal(t, models.TaskStatusInProgress, task.Status)
	require.Equal(t, models.TaskPriorityHigh, task.Priority)
	require.Equal(t, env.other.ID, *task.AssignedTo)
}

func TestTaskHandler_GetTask_AccessControl(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Review PR backlog",
		"description": "Everything tagged needs-review",
		"due_date":    "2026-09-12",
		"priority":    "medium",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	assignee := newTaskRouter(env, env.assignee.ID, models.RoleUser)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), nil)
	rec := httptest.NewRecorder()
	assignee.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	other := newTaskRouter(env, env.other.ID, models.RoleUser)
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), nil)
	rec = httptest.NewRecorder()
	other.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTaskHandler_AddComment(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Investigate slow query",
		"description": "Dashboard takes 4s to load",
		"due_date":    "2026-09-12",
		"priority":    "high",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	w = postJSON(t, admin, fmt.Sprintf("/tasks/%d/comments", task.ID), map[string]any{
		"comment": "Looks like a missing index on due_date.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "Looks like a missing index on due_date.", body["comment"])
	require.Equal(t, "Test User", body["author_name"])

	// Whitespace-only comments are rejected
	w = postJSON(t, admin, fmt.Sprintf("/tasks/%d/comments", task.ID), map[string]any{
		"comment": "   ",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown task
	w = postJSON(t, admin, "/tasks/9999/comments", map[string]any{
		"comment": "Lost comment",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	w := postJSON(t, admin, "/tasks", map[string]any{
		"title":       "Clean up staging",
		"description": "Remove stale deployments",
		"due_date":    "2026-09-12",
		"priority":    "low",
		"assigned_to": env.assignee.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, env.db.First(&task).Error)

	w = postJSON(t, admin, fmt.Sprintf("/tasks/%d/comments", task.ID), map[string]any{
		"comment": "On it.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/tasks/%d", task.ID), nil)
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var taskCount, commentCount int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&taskCount).Error)
	require.NoError(t, env.db.Model(&models.TaskComment{}).Count(&commentCount).Error)
	require.Zero(t, taskCount)
	require.Zero(t, commentCount, "deleting a task removes its comments")

	// Deleting again reports not found
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_ListOverdueTasks(t *testing.T) {
	env := setupTaskTestEnv(t)

	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	overdue := &models.Task{
		Title: "Overdue pending", Description: "x", DueDate: yesterday,
		Status: models.TaskStatusPending, Priority: models.TaskPriorityHigh,
		AssignedTo: &env.assignee.ID, CreatedBy: env.admin.ID,
	}
	completedLate := &models.Task{
		Title: "Finished late", Description: "x", DueDate: yesterday,
		Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow,
		AssignedTo: &env.assignee.ID, CreatedBy: env.admin.ID,
	}
	upcoming := &models.Task{
		Title: "Due tomorrow", Description: "x", DueDate: tomorrow,
		Status: models.TaskStatusPending, Priority: models.TaskPriorityLow,
		AssignedTo: &env.assignee.ID, CreatedBy: env.admin.ID,
	}
	require.NoError(t, env.db.Create(overdue).Error)
	require.NoError(t, env.db.Create(completedLate).Error)
	require.NoError(t, env.db.Create(upcoming).Error)

	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/tasks/overdue", nil)
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	first := tasks[0].(map[string]any)
	require.Equal(t, "Overdue pending", first["title"])
}

func TestTaskHandler_ListTasksByStatus(t *testing.T) {
	env := setupTaskTestEnv(t)
	admin := newTaskRouter(env, env.admin.ID, models.RoleAdmin)

	for i, status := range []models.TaskStatus{models.TaskStatusPending, models.TaskStatusCompleted} {
		task := &models.Task{
			Title: fmt.Sprintf("Task %d", i), Description: "x",
			DueDate: time.Now().AddDate(0, 0, 7), Status: status,
			Priority: models.TaskPriorityMedium, AssignedTo: &env.assignee.ID,
			CreatedBy: env.admin.ID,
		}
		require.NoError(t, env.db.Create(task).Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks/status/completed", nil)
	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Len(t, body["tasks"].([]any), 1)

	// Invalid status segment
	req = httptest.NewRequest(http.MethodGet, "/tasks/status/bogus", nil)
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_RequireAdmin_FullStack(t *testing.T) {
	env := setupTaskTestEnv(t)
	gin.SetMode(gin.TestMode)

	userRepo := repository.NewUserRepository(env.db)
	authService := services.NewAuthService(userRepo, notifier.Noop{}, testResetSecret, "http://localhost:8080")
	authHandler := NewAuthHandler(authService)

	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/login", authHandler.Login)
	adminGroup := r.Group("/api/admin", middleware.RequireAdmin())
	adminGroup.GET("/dashboard", env.handler.Dashboard)

	login := func(email string) []*http.Cookie {
		w := postJSON(t, r, "/api/auth/login", map[string]string{
			"email":    email,
			"password": "supersecret",
		})
		require.Equal(t, http.StatusOK, w.Code)
		return w.Result().Cookies()
	}

	// No session at all
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Regular user session
	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	for _, c := range login("worker@example.com") {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin session
	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	for _, c := range login("admin@example.com") {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func putJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	return sendJSON(t, r, http.MethodPut, path, payload)
}

func patchJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	return sendJSON(t, r, http.MethodPatch, path, payload)
}

func sendJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
