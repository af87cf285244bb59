package main

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Deepee26/TMS/internal/config"
	"github.com/Deepee26/TMS/internal/constants"
	"github.com/Deepee26/TMS/internal/database"
	"github.com/Deepee26/TMS/internal/handlers"
	"github.com/Deepee26/TMS/internal/middleware"
	"github.com/Deepee26/TMS/internal/notifier"
	"github.com/Deepee26/TMS/internal/repository"
	"github.com/Deepee26/TMS/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	// Create tables and indexes idempotently
	if err := database.Migrate(); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Ensure a bootstrap admin account exists
	if err := database.SeedAdmin(cfg); err != nil {
		logrus.Fatalf("Failed to seed admin account: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Session store: redis when configured, cookie otherwise
	store, err := buildSessionStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to create session store: %v", err)
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Mail is optional; password reset reports unavailable without it
	var mailer notifier.Notifier = notifier.Noop{}
	if cfg.SMTPHost != "" && cfg.SMTPUser != "" {
		mailer = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	// Initialize repositories and services
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := services.NewAuthService(userRepo, mailer, cfg.ResetSecret, cfg.BaseURL)
	taskService := services.NewTaskService(taskRepo, commentRepo, userRepo)
	userService := services.NewUserService(userRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService, authService)

	// Landing and health endpoints
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "Task Management System",
			"message": "Welcome. Please log in to continue.",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Task Management System is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Admin routes (role=admin required)
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/dashboard", taskHandler.Dashboard)
			admin.GET("/tasks", taskHandler.ListTasks)
			admin.POST("/tasks", taskHandler.CreateTask)
			admin.GET("/tasks/overdue", taskHandler.ListOverdueTasks)
			admin.GET("/tasks/status/:status", taskHandler.ListTasksByStatus)
			admin.GET("/tasks/:id", taskHandler.GetTask)
			admin.PUT("/tasks/:id", taskHandler.UpdateTask)
			admin.PATCH("/tasks/:id/status", taskHandler.UpdateTaskStatus)
			admin.DELETE("/tasks/:id", taskHandler.DeleteTask)
			admin.POST("/tasks/:id/comments", taskHandler.AddComment)

			admin.GET("/users", userHandler.ListUsers)
			admin.GET("/users/assignable", userHandler.ListAssignableUsers)
			admin.GET("/users/:id", userHandler.GetUser)
			admin.PUT("/users/:id", userHandler.UpdateUser)
			admin.POST("/users/:id/toggle-verification", userHandler.ToggleVerification)
			admin.DELETE("/users/:id", userHandler.DeleteUser)
		}

		// Authenticated user routes
		user := api.Group("/user")
		user.Use(middleware.RequireAuth())
		{
			user.GET("/dashboard", taskHandler.UserDashboard)
			user.GET("/tasks", taskHandler.UserTasks)
			user.GET("/tasks/:id", taskHandler.GetTask)
			user.PATCH("/tasks/:id/status", taskHandler.UpdateTaskStatus)

			user.GET("/profile", userHandler.GetProfile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.POST("/profile/change-password", userHandler.ChangePassword)
		}
	}

	// Start server
	logrus.Infof("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}

func buildSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.RedisHost == "" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // pool size
		"tcp",     // network type
		redisAddr, // address
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		return nil, err
	}

	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	return store, nil
}
