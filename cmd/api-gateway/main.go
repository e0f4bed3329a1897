package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/tutor-booking-api/api/swagger"
	"github.com/noah-isme/tutor-booking-api/internal/handler"
	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/repository"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/cache"
	"github.com/noah-isme/tutor-booking-api/pkg/config"
	"github.com/noah-isme/tutor-booking-api/pkg/database"
	"github.com/noah-isme/tutor-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/requestid"
)

// @title Tutor Booking API
// @version 1.0.0
// @description Scheduling backend for a tutoring business: teacher availability, single and recurring lesson booking, conflict confirmation and cost derivation.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis only backs the availability read cache; the API stays up
		// without it.
		logr.Sugar().Warnw("redis unavailable, availability caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Booking.AvailabilityCacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tutor-booking-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheSvc, cfg.Booking.AvailabilityCacheTTL, metricsSvc, nil, logr)
	bookingSvc := service.NewBookingService(lessonRepo, teacherRepo, nil, logr, service.BookingConfig{
		SessionTTL: cfg.Booking.SessionTTL,
	})
	recurrenceSvc := service.NewRecurrenceService(lessonRepo, teacherRepo, availabilitySvc, nil, logr, service.RecurrenceConfig{
		PreviewTTL: cfg.Booking.PreviewTTL,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	lessonHandler := handler.NewLessonHandler(bookingSvc)
	recurrenceHandler := handler.NewRecurrenceHandler(recurrenceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/metrics/summary", metricsHandler.Snapshot)

		users := protected.Group("/users")
		users.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		teachers := protected.Group("/teachers")
		{
			teachers.GET("", teacherHandler.List)
			teachers.GET("/:id", teacherHandler.Get)
			teachers.POST("", teacherHandler.Create)
			teachers.PUT("/:id", teacherHandler.Update)
			teachers.DELETE("/:id", teacherHandler.Delete)

			teachers.GET("/:id/availability", availabilityHandler.ListRange)
			teachers.GET("/:id/availability/:date", availabilityHandler.Get)
			teachers.POST("/:id/availability/:date/slots", availabilityHandler.AddSlot)
			teachers.PUT("/:id/availability/:date/slots/:index", availabilityHandler.EditSlot)
			teachers.DELETE("/:id/availability/:date/slots/:index", availabilityHandler.RemoveSlot)
		}

		students := protected.Group("/students")
		{
			students.GET("", studentHandler.List)
			students.GET("/:id", studentHandler.Get)
			students.POST("", studentHandler.Create)
			students.PUT("/:id", studentHandler.Update)
			students.DELETE("/:id", studentHandler.Delete)
		}

		lessons := protected.Group("/lessons")
		{
			lessons.GET("", lessonHandler.List)
			lessons.GET("/:id", lessonHandler.Get)
			lessons.POST("", lessonHandler.Create)
			lessons.PUT("/:id", lessonHandler.Update)
			lessons.DELETE("/:id", lessonHandler.Delete)
		}

		recurrences := protected.Group("/recurrences")
		{
			recurrences.GET("/teachers", recurrenceHandler.RankTeachers)
			recurrences.POST("", recurrenceHandler.Generate)
			recurrences.GET("/:id", recurrenceHandler.Get)
			recurrences.POST("/:id/assign", recurrenceHandler.AssignTeacher)
			recurrences.POST("/:id/assign-all", recurrenceHandler.BulkAssignTeacher)
			recurrences.POST("/:id/price", recurrenceHandler.UpdatePrice)
			recurrences.POST("/:id/commit", recurrenceHandler.Commit)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
