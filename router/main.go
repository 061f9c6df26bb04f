package router

import (
	"log"
	"os"
	"time"

	"github.com/clinisim/simulator-api/database"
	"github.com/clinisim/simulator-api/handlers"
	admin_handlers "github.com/clinisim/simulator-api/handlers/admin"
	auth_handlers "github.com/clinisim/simulator-api/handlers/auth"
	case_handlers "github.com/clinisim/simulator-api/handlers/cases"
	contribute_handlers "github.com/clinisim/simulator-api/handlers/contribute"
	goal_handlers "github.com/clinisim/simulator-api/handlers/goals"
	notification_handlers "github.com/clinisim/simulator-api/handlers/notification"
	path_handlers "github.com/clinisim/simulator-api/handlers/paths"
	performance_handlers "github.com/clinisim/simulator-api/handlers/performance"
	simulation_handlers "github.com/clinisim/simulator-api/handlers/simulation"
	specialty_handlers "github.com/clinisim/simulator-api/handlers/specialty"
	"github.com/clinisim/simulator-api/services"
	"github.com/clinisim/simulator-api/services/spaces"
	"github.com/clinisim/simulator-api/utils"
	"github.com/clinisim/simulator-api/utils/auth"
	"github.com/clinisim/simulator-api/utils/cache"
	"github.com/clinisim/simulator-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "clinisim-api"
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

	// Initialize Redis cache for brute force protection and specialty visibility
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and visibility caching will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Object storage client for case media (optional; media uploads 503 without it)
	var spacesClient *spaces.Client
	if os.Getenv("SPACES_ACCESS_KEY") != "" {
		spacesClient, err = spaces.NewClient(spaces.Config{
			AccessKey: os.Getenv("SPACES_ACCESS_KEY"),
			SecretKey: os.Getenv("SPACES_SECRET_KEY"),
			Bucket:    os.Getenv("SPACES_BUCKET"),
			Region:    os.Getenv("SPACES_REGION"),
			Endpoint:  os.Getenv("SPACES_ENDPOINT"),
			CDNURL:    os.Getenv("SPACES_CDN_URL"),
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize object storage: %v. Media uploads will be disabled.", err)
		}
	}

	// Initialize services
	emailService := services.NewEmailService()
	notificationService := services.NewNotificationService(db)
	specialtyService := services.NewSpecialtyService(db, redisCache)
	caseService := services.NewCaseService(db, specialtyService)
	sessionService := services.NewSessionService(db)
	retakeService := services.NewRetakeService(db)
	contributionService := services.NewContributionService(db, notificationService, emailService)
	goalService := services.NewGoalService(db, notificationService)
	pathService := services.NewPathService(db, notificationService)
	performanceService := services.NewPerformanceService(db)
	analyticsService := services.NewAnalyticsService(db)
	mediaService := services.NewMediaService(db, spacesClient)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService)
	specialtyHandler := specialty_handlers.NewSpecialtyHandler(specialtyService)
	caseHandler := case_handlers.NewCaseHandler(caseService, mediaService)
	sessionHandler := simulation_handlers.NewSessionHandler(sessionService, goalService, analyticsService)
	retakeHandler := simulation_handlers.NewRetakeHandler(sessionService, retakeService, analyticsService)
	contributionHandler := contribute_handlers.NewContributionHandler(contributionService, mediaService)
	goalHandler := goal_handlers.NewGoalHandler(goalService, analyticsService)
	pathHandler := path_handlers.NewPathHandler(pathService, analyticsService)
	performanceHandler := performance_handlers.NewPerformanceHandler(performanceService)
	notificationHandler := notification_handlers.NewNotificationHandler(notificationService)

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
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Specialty routes
	specialties := api.Group("/specialties")
	specialties.Get("/", authMiddleware.Optional(), specialtyHandler.ListSpecialties)                                                                                 // Public: List visible specialties (admins may include hidden)
	specialties.Post("/", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "specialty_create", "specialties"), specialtyHandler.CreateSpecialty)         // Admin only
	specialties.Put("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "specialty_update", "specialties"), specialtyHandler.UpdateSpecialty)       // Admin only
	specialties.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "specialty_delete", "specialties"), specialtyHandler.DeleteSpecialty)    // Admin only

	// Case catalog routes
	cases := api.Group("/cases", authMiddleware.Required())
	cases.Get("/", caseHandler.ListCases)                                                                                               // List published cases (admins may include unpublished)
	cases.Get("/:id", caseHandler.GetCase)                                                                                              // Get case by ID
	cases.Post("/", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "case_create", "cases"), caseHandler.CreateCase)      // Admin only: Create case directly
	cases.Put("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "case_update", "cases"), caseHandler.UpdateCase)    // Admin only
	cases.Put("/:id/publish", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "case_publish", "cases"), caseHandler.SetPublished)
	cases.Delete("/:id", authMiddleware.RequireAdmin(), middleware.AdminAuditLog(store, "case_delete", "cases"), caseHandler.DeleteCase) // Admin only
	cases.Post("/:id/media", authMiddleware.RequireAdmin(), caseHandler.UploadMedia) // Admin only: Attach media
	api.Delete("/media/:id", authMiddleware.RequireAdmin(), caseHandler.DeleteMedia) // Admin only

	// Simulation session routes (all protected). Session IDs are the external
	// UUIDs handed out at session start.
	simulation := api.Group("/simulation", authMiddleware.Required())
	simulation.Post("/sessions", sessionHandler.StartSession)
	simulation.Get("/sessions/:session_id", sessionHandler.GetSession)
	simulation.Post("/sessions/:session_id/complete", sessionHandler.CompleteSession)
	simulation.Post("/sessions/:session_id/abandon", sessionHandler.AbandonSession)

	// Retake routes
	simulation.Post("/retake/start", retakeHandler.StartRetake)                           // Start a retake of a completed case
	simulation.Get("/retake/sessions/:case_id", retakeHandler.GetRetakeSessions)          // Attempt history for a case
	simulation.Post("/retake/calculate-improvement", retakeHandler.CalculateImprovement)  // Compare attempts

	// Case contribution routes (authoring requires educator or admin role, enforced in handlers)
	contribute := api.Group("/contribute", authMiddleware.Required())
	contribute.Post("/cases", contributionHandler.CreateDraft)
	contribute.Get("/cases", contributionHandler.ListContributions)
	contribute.Put("/cases/:id", contributionHandler.UpdateDraft)
	contribute.Post("/cases/:id/submit", contributionHandler.Submit)
	contribute.Post("/cases/:id/media", contributionHandler.UploadMedia)

	// Review workflow (admin only)
	contribute.Post("/cases/:id/review", authMiddleware.RequireAdmin(), contributionHandler.StartReview)
	contribute.Post("/cases/:id/approve", authMiddleware.RequireAdmin(), contributionHandler.Approve)
	contribute.Post("/cases/:id/reject", authMiddleware.RequireAdmin(), contributionHandler.Reject)
	contribute.Post("/cases/:id/request-revision", authMiddleware.RequireAdmin(), contributionHandler.RequestRevision)
	contribute.Post("/cases/:id/publish", authMiddleware.RequireAdmin(), contributionHandler.Publish)

	// Learning goal routes (all protected)
	goals := api.Group("/goals", authMiddleware.Required())
	goals.Post("/", goalHandler.CreateGoal)
	goals.Get("/", goalHandler.ListGoals)
	goals.Get("/:id", goalHandler.GetGoal)
	goals.Put("/:id", goalHandler.UpdateGoal)
	goals.Delete("/:id", goalHandler.AbandonGoal)
	goals.Post("/:id/evaluate", goalHandler.EvaluateGoal)

	// Learning path routes
	paths := api.Group("/paths", authMiddleware.Required())
	paths.Get("/", pathHandler.ListPaths)
	paths.Get("/:id", pathHandler.GetPath)
	paths.Post("/", pathHandler.CreatePath)    // Educator or admin, enforced in handler
	paths.Put("/:id", pathHandler.UpdatePath)  // Educator or admin, enforced in handler
	paths.Delete("/:id", authMiddleware.RequireAdmin(), pathHandler.DeletePath)
	paths.Post("/:id/enroll", pathHandler.Enroll)
	paths.Get("/:id/progress", pathHandler.GetProgress)

	// Performance routes (all protected)
	performance := api.Group("/performance", authMiddleware.Required())
	performance.Get("/summary", performanceHandler.GetSummary)
	performance.Get("/metrics", performanceHandler.ListMetrics)

	// Notification routes (all protected)
	notifications := api.Group("/notifications", authMiddleware.Required())
	notifications.Get("/", notificationHandler.GetNotifications)
	notifications.Get("/unread-count", notificationHandler.GetUnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkAsRead)
	notifications.Put("/read-all", notificationHandler.MarkAllAsRead)
	notifications.Delete("/:id", notificationHandler.DeleteNotification)

	// ==================== Admin Panel Endpoints ====================

	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Admin User Management
	admin.Get("/users/stats", func(c *fiber.Ctx) error { return admin_handlers.GetUserStats(c, store) })
	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Get("/users/:id", func(c *fiber.Ctx) error { return admin_handlers.GetUser(c, store) })
	admin.Put("/users/:id", middleware.AdminAuditLog(store, "user_update", "users"), func(c *fiber.Ctx) error { return admin_handlers.UpdateUser(c, store) })
	admin.Delete("/users/:id", middleware.AdminAuditLog(store, "user_delete", "users"), func(c *fiber.Ctx) error { return admin_handlers.DeleteUser(c, store) })
	admin.Post("/users/:id/reset-password", middleware.AdminAuditLog(store, "password_reset", "users"), func(c *fiber.Ctx) error { return admin_handlers.ResetUserPassword(c, store) })

	// Admin Analytics
	admin.Get("/analytics/dashboard", func(c *fiber.Ctx) error { return admin_handlers.GetDashboard(c, analyticsService) })
	admin.Get("/analytics/specialties/:id", func(c *fiber.Ctx) error { return admin_handlers.GetSpecialtyAnalytics(c, analyticsService) })
	admin.Get("/analytics/activity", func(c *fiber.Ctx) error { return admin_handlers.GetActivityAnalytics(c, analyticsService) })
	admin.Get("/analytics/sessions", func(c *fiber.Ctx) error { return admin_handlers.GetSessionAnalytics(c, analyticsService) })
	admin.Get("/analytics/top-cases", func(c *fiber.Ctx) error { return admin_handlers.GetTopCases(c, analyticsService) })

	// Admin Audit Logs
	admin.Get("/audit", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/audit/:id", func(c *fiber.Ctx) error { return admin_handlers.GetAuditLog(c, store) })

	// Admin Settings Management
	admin.Get("/settings", func(c *fiber.Ctx) error { return admin_handlers.ListSettings(c, store) })
	admin.Get("/settings/:key", func(c *fiber.Ctx) error { return admin_handlers.GetSetting(c, store) })
	admin.Put("/settings/:key", middleware.AdminAuditLog(store, "setting_update", "settings"), func(c *fiber.Ctx) error { return admin_handlers.UpdateSetting(c, store) })
	admin.Delete("/settings/:key", middleware.AdminAuditLog(store, "setting_delete", "settings"), func(c *fiber.Ctx) error { return admin_handlers.DeleteSetting(c, store) })
}
