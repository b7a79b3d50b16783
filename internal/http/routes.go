package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smart-todo/internal/http/handlers"
	"smart-todo/internal/http/middleware"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

// Deps holds everything the router needs.
type Deps struct {
	DB            *gorm.DB
	Tasks         *service.TaskService
	Reminders     *service.ReminderService
	Settings      *service.SettingsService
	Accounts      *service.AccountService
	Notifications *repository.NotificationRepository
	Users         middleware.UserFinder
	Tokens        middleware.TokenParser
	TriggerSecret string
	Version       string
	Log           *logrus.Entry
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(d.Log), middleware.Metrics())
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Tasks, d.Reminders, d.Settings, d.Accounts, d.Notifications, d.Log)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Version)
	trigger := handlers.NewReminderTrigger(d.Reminders, d.TriggerSecret, d.Log)

	// Health checks and metrics
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/check_reminders", trigger.CheckReminders)

	api := r.Group("/api", middleware.JWT(d.Tokens))
	api.GET("/tasks", h.ListTasks)
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PUT("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/complete", h.CompleteTask)
	api.POST("/tasks/:id/test_reminder", h.TestReminder)
	api.GET("/stats", h.Stats)

	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/:id/read", h.MarkNotificationRead)

	admin := api.Group("/admin", middleware.Admin(d.Users))
	admin.GET("/settings", h.GetSettings)
	admin.POST("/email_verification/toggle", h.ToggleEmailVerification)
	admin.PUT("/settings/email", h.UpdateEmailSettings)
	admin.PUT("/settings/reminder_times", h.UpdateReminderTimes)
	admin.POST("/notifications", h.Broadcast)
	admin.POST("/test_email", h.TestEmail)
}
