package router

import (
	"log"
	"os"
	"time"

	"github.com/advisorly/api/database"
	"github.com/advisorly/api/handlers"
	admin_handlers "github.com/advisorly/api/handlers/admin"
	aptitude_handlers "github.com/advisorly/api/handlers/aptitude"
	auth_handlers "github.com/advisorly/api/handlers/auth"
	essay_handlers "github.com/advisorly/api/handlers/essay"
	notification_handlers "github.com/advisorly/api/handlers/notification"
	schedule_handlers "github.com/advisorly/api/handlers/schedule"
	session_handlers "github.com/advisorly/api/handlers/session"
	shortlist_handlers "github.com/advisorly/api/handlers/shortlist"
	student_handlers "github.com/advisorly/api/handlers/student"
	task_handlers "github.com/advisorly/api/handlers/task"
	"github.com/advisorly/api/services"
	"github.com/advisorly/api/services/digitalocean"
	"github.com/advisorly/api/utils"
	"github.com/advisorly/api/utils/auth"
	"github.com/advisorly/api/utils/cache"
	"github.com/advisorly/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services groups the shared service instances wired into the routes. The
// caller builds them once so the cron manager works on the same instances.
type Services struct {
	Notifications *services.NotificationService
	Summaries     *services.SummaryService
	Aptitude      *services.AptitudeService
	Essays        *services.EssayService
	Scheduler     *services.SchedulerService
}

// BuildServices constructs the service layer from environment configuration.
func BuildServices(db *gorm.DB) (*Services, error) {
	inferenceClient := digitalocean.NewInferenceClient(digitalocean.InferenceConfig{
		APIKey: os.Getenv("MODEL_ACCESS_KEY"),
	})
	llm := services.NewInferenceLanguageModel(inferenceClient)

	spacesClient, err := digitalocean.NewSpacesClientFromGlobalConfig()
	if err != nil {
		return nil, err
	}
	store := services.NewSpacesObjectStore(spacesClient)

	bot := services.NewBotServiceClient()
	calendar := services.NewCalendarBridgeClient()

	notifications := services.NewNotificationService(db)
	summaries := services.NewSummaryService(db, llm)

	return &Services{
		Notifications: notifications,
		Summaries:     summaries,
		Aptitude:      services.NewAptitudeService(db, llm, notifications),
		Essays:        services.NewEssayService(db, store, llm, notifications),
		Scheduler:     services.NewSchedulerService(db, bot, calendar, store, summaries, notifications),
	}, nil
}

func SetupRoutes(app *fiber.App, store database.Storage, svc *Services) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "advisorly-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize auth handler with brute force protection
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	// Initialize domain handlers from the shared service layer
	aptitudeHandler := aptitude_handlers.NewAptitudeHandler(svc.Aptitude)
	scheduleHandler := schedule_handlers.NewScheduleHandler(svc.Scheduler)
	sessionHandler := session_handlers.NewSessionHandler(svc.Scheduler)
	essayHandler := essay_handlers.NewEssayHandler(svc.Essays)
	taskHandler := task_handlers.NewTaskHandler(db)
	shortlistHandler := shortlist_handlers.NewShortlistHandler(db)
	studentHandler := student_handlers.NewStudentHandler(db, svc.Summaries)
	notificationHandler := notification_handlers.NewNotificationHandler(svc.Notifications)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// ==================== Aptitude Testing ====================

	aptitude := api.Group("/aptitude", authMiddleware.Required())
	aptitude.Get("/questions", aptitudeHandler.GetQuestions)                            // Protected: Static questionnaire
	aptitude.Post("/sessions", aptitudeHandler.CreateSession)                           // Student: Start a new test session
	aptitude.Get("/sessions", aptitudeHandler.ListSessions)                             // Student: List own sessions
	aptitude.Get("/sessions/:id", aptitudeHandler.GetSession)                           // Student: Get session details
	aptitude.Put("/sessions/:id/subjects", aptitudeHandler.UpdateFavoriteSubjects)      // Student: Step 1
	aptitude.Put("/sessions/:id/comfort", aptitudeHandler.UpdateComfortLevels)          // Student: Step 2
	aptitude.Put("/sessions/:id/answers", aptitudeHandler.UpdateAnswers)                // Student: Step 3
	aptitude.Post("/sessions/:id/recommendations", aptitudeHandler.GenerateRecommendations) // Student: Score and complete
	aptitude.Post("/sessions/:id/hide", aptitudeHandler.HideSession)                    // Student: Hide from listing

	// ==================== Scheduled Sessions (advisor) ====================

	schedule := api.Group("/scheduled-sessions", authMiddleware.Required())
	schedule.Post("/", scheduleHandler.CreateScheduledSession)                // Advisor: Schedule a meeting
	schedule.Get("/", scheduleHandler.ListScheduledSessions)                  // Advisor: List scheduled meetings
	schedule.Get("/:id", scheduleHandler.GetScheduledSession)                 // Advisor: Get scheduled meeting
	schedule.Delete("/:id", scheduleHandler.DeleteScheduledSession)           // Advisor: Cancel scheduled meeting
	schedule.Post("/:id/dispatch", scheduleHandler.DispatchBot)               // Advisor: Send bot to meeting
	schedule.Post("/:id/complete", scheduleHandler.CompleteSession)           // Advisor: Capture finished meeting
	schedule.Post("/:id/claim", scheduleHandler.ClaimSession)                 // Advisor: Attach auto-synced session to a student
	schedule.Post("/:id/transcription", scheduleHandler.RegenerateTranscription) // Advisor: Re-fetch transcript
	schedule.Post("/sync-calendars", scheduleHandler.SyncCalendars)           // Advisor: Pull calendar events now

	// ==================== Captured Sessions ====================

	sessions := api.Group("/sessions", authMiddleware.Required())
	sessions.Get("/", sessionHandler.ListSessions)                  // Protected: List captured sessions
	sessions.Get("/:id", sessionHandler.GetSession)                 // Protected: Get session details
	sessions.Get("/:id/transcript", sessionHandler.GetTranscriptURL) // Protected: Signed transcript URL
	sessions.Delete("/:id", sessionHandler.DeleteSession)           // Advisor: Delete session

	// ==================== Tasks ====================

	tasks := api.Group("/tasks", authMiddleware.Required())
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Put("/:id", taskHandler.UpdateTask)
	tasks.Delete("/:id", taskHandler.DeleteTask)

	// ==================== Essays ====================

	essays := api.Group("/essays", authMiddleware.Required())
	essays.Post("/", essayHandler.UploadEssay)                   // Student: Upload essay PDF
	essays.Get("/", essayHandler.ListEssays)                     // Student: List own essays
	essays.Get("/:id", essayHandler.GetEssay)                    // Student: Get essay details
	essays.Post("/:id/feedback", essayHandler.GenerateFeedback)  // Student: Request AI feedback
	essays.Get("/:id/download", essayHandler.GetDownloadURL)     // Student: Signed download URL
	essays.Delete("/:id", essayHandler.DeleteEssay)              // Student: Delete essay

	// ==================== College Shortlist ====================

	shortlist := api.Group("/shortlist", authMiddleware.Required())
	shortlist.Post("/", shortlistHandler.CreateEntry)
	shortlist.Get("/", shortlistHandler.ListEntries)
	shortlist.Put("/:id", shortlistHandler.UpdateEntry)
	shortlist.Delete("/:id", shortlistHandler.DeleteEntry)

	// ==================== Students (advisor roster) ====================

	students := api.Group("/students", authMiddleware.Required())
	students.Get("/", studentHandler.ListStudents)                   // Advisor: Own roster, admin: all
	students.Get("/:id/overview", studentHandler.GetStudentOverview) // Protected: Accumulated overview
	students.Put("/:id/advisor", studentHandler.AssignAdvisor)       // Admin: Assign advisor

	// ==================== Notifications ====================

	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Post("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Post("/:id/read", notificationHandler.MarkAsRead)
	notifications.Delete("/", notificationHandler.DeleteAllNotifications)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)

	// ==================== Admin Panel Endpoints ====================

	admin := api.Group("/admin", authMiddleware.Required(), middleware.RequireAdmin(store))

	// Admin User Management
	admin.Get("/users/stats", func(c *fiber.Ctx) error { return admin_handlers.GetUserStats(c, store) })
	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Get("/users/:id", func(c *fiber.Ctx) error { return admin_handlers.GetUser(c, store) })
	admin.Put("/users/:id", middleware.AdminAuditLog(store, "user_update", "users"), func(c *fiber.Ctx) error { return admin_handlers.UpdateUser(c, store) })
	admin.Delete("/users/:id", middleware.AdminAuditLog(store, "user_delete", "users"), func(c *fiber.Ctx) error { return admin_handlers.DeleteUser(c, store) })
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(store, "password_reset", "users"), func(c *fiber.Ctx) error { return admin_handlers.ResetUserPassword(c, store) })

	// Admin Audit Logs
	admin.Get("/audit", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/audit/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, store) })
}
