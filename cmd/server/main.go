package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yamato-h/project-tracker-api/internal/config"
	"github.com/yamato-h/project-tracker-api/internal/constants"
	"github.com/yamato-h/project-tracker-api/internal/database"
	"github.com/yamato-h/project-tracker-api/internal/handlers"
	"github.com/yamato-h/project-tracker-api/internal/logger"
	"github.com/yamato-h/project-tracker-api/internal/mailer"
	"github.com/yamato-h/project-tracker-api/internal/middleware"
	"github.com/yamato-h/project-tracker-api/internal/repository"
	"github.com/yamato-h/project-tracker-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		logger.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize mailer
	smtpMailer, err := mailer.NewSMTPMailer(cfg)
	if err != nil {
		logger.Fatalf("Failed to configure mailer: %v", err)
	}

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	// Initialize services
	invitationService := services.NewInvitationService(invitationRepo, teamRepo, userRepo, smtpMailer, cfg.BaseURL)
	authService := services.NewAuthService(userRepo, teamRepo, invitationService)
	teamService := services.NewTeamService(teamRepo, userRepo)
	projectService := services.NewProjectService(projectRepo, teamRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	projectHandler := handlers.NewProjectHandler(projectService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Project Tracker API is running",
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
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/accept-invite", authHandler.AcceptInviteSignup)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.ListTeams)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.PATCH("/:id/members/:member_id", middleware.RequireTeamAccess(), teamHandler.ChangeMemberRole)
			teams.DELETE("/:id/members/:member_id", middleware.RequireTeamAccess(), teamHandler.RemoveMember)
		}

		// Invitation routes (protected)
		api.POST("/invite", middleware.RequireAuth(), invitationHandler.Invite)
		invitations := api.Group("/invitations")
		invitations.Use(middleware.RequireAuth())
		{
			invitations.GET("", invitationHandler.ListPending)
			invitations.POST("/:id/accept", invitationHandler.Accept)
			invitations.POST("/:id/reject", invitationHandler.Reject)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:slug", projectHandler.GetProjectBySlug)
			projects.PATCH("/:id", projectHandler.RenameProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/features", projectHandler.AddFeature)
		}

		// Feature routes (protected)
		features := api.Group("/features")
		features.Use(middleware.RequireAuth())
		{
			features.POST("/:id/duplicate", projectHandler.DuplicateFeature)
			features.DELETE("/:id", projectHandler.DeleteFeature)
			features.POST("/:id/tasks", projectHandler.AddTask)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.PATCH("/:id/progress", projectHandler.UpdateTaskProgress)
			tasks.DELETE("/:id", projectHandler.DeleteTask)
		}
	}

	// Start server
	logger.Info().Msg("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
