package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agritrack_backend/database"
	"agritrack_backend/internal/auth"
	"agritrack_backend/internal/cache"
	"agritrack_backend/internal/config"
	"agritrack_backend/internal/handlers"
	"agritrack_backend/internal/logger"
	"agritrack_backend/internal/middleware"
	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
	"agritrack_backend/internal/routes"
	"agritrack_backend/internal/services"
	"agritrack_backend/internal/validator"
	"agritrack_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	logger.Info("database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWorkers(ctx, cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	serviceContainer := initializeServices(cfg, gormDB)
	appHandlers := initializeHandlers(serviceContainer)
	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *services.ServiceContainer {
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	broadcastRepo := repositories.NewBroadcastRepository(gormDB)
	directoryRepo := repositories.NewDirectoryRepository(gormDB)

	unreadCache := cache.NewUnreadCache(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.TTL)*time.Second,
	)
	if unreadCache == nil {
		logger.Warn("redis not configured, unread counts will always hit the database")
	}

	resolver := services.NewRecipientResolver(directoryRepo)
	aggregator := services.NewStatsAggregator(broadcastRepo)
	notificationService := services.NewNotificationService(notificationRepo, aggregator, unreadCache)
	broadcastService := services.NewBroadcastService(broadcastRepo, notificationRepo, resolver, cfg.Broadcast)

	return &services.ServiceContainer{
		NotificationService: notificationService,
		BroadcastService:    broadcastService,
		RecipientResolver:   resolver,
		StatsAggregator:     aggregator,
	}
}

func initializeHandlers(services *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, services.NotificationService),
		BroadcastHandler:    handlers.NewBroadcastHandler(baseHandler, services.BroadcastService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

func startWorkers(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) {
	reconciler := workers.NewStatsReconciler(
		repositories.NewBroadcastRepository(gormDB),
		repositories.NewNotificationRepository(gormDB),
		time.Duration(cfg.Workers.StatsReconcileMinutes)*time.Minute,
	)
	reconciler.Start(ctx)
}

// seedFirstAdmin bootstraps the first admin account so broadcasts can be
// authored on a fresh install. A no-op when the account already exists or
// the credentials are unset.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("first admin credentials not set, skipping admin seeding")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var existing models.UserAccount
	result := tx.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		logger.Info("admin user already exists, skipping creation", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("no admin user found, creating first admin", "email", adminEmail)

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.UserAccount{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Status:       models.UserStatusActive,
	}
	if err := tx.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	profile := &models.UserProfile{
		UserID: admin.ID,
		Name:   "Platform Administration",
		Role:   models.UserRoleAdmin,
	}
	if err := tx.Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create admin profile: %w", err)
	}

	logger.Info("first admin user created", "email", adminEmail)
	return tx.Commit().Error
}
