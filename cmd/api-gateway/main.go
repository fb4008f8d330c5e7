package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadops/defense-scheduler-api/api/swagger"
	"github.com/acadops/defense-scheduler-api/internal/handler"
	internalmiddleware "github.com/acadops/defense-scheduler-api/internal/middleware"
	"github.com/acadops/defense-scheduler-api/internal/repository"
	"github.com/acadops/defense-scheduler-api/internal/scheduler"
	"github.com/acadops/defense-scheduler-api/internal/service"
	"github.com/acadops/defense-scheduler-api/pkg/cache"
	"github.com/acadops/defense-scheduler-api/pkg/config"
	"github.com/acadops/defense-scheduler-api/pkg/database"
	"github.com/acadops/defense-scheduler-api/pkg/logger"
	corsmiddleware "github.com/acadops/defense-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadops/defense-scheduler-api/pkg/middleware/requestid"
	"github.com/acadops/defense-scheduler-api/pkg/storage"
)

// @title Defense Scheduler API
// @version 1.0.0
// @description Capstone defense scheduling: panel assignment, slot scheduling and room allocation
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// Redis only backs the result cache; the API stays up without it.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, result cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	runRepo := repository.NewRunRepository(db)
	entryRepo := repository.NewScheduleEntryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	pipeline := scheduler.NewPipeline(cfg.Solver.Engines, scheduler.Options{
		TimeLimit:             cfg.Solver.TimeLimit,
		LargeProblemThreshold: cfg.Solver.LargeProblemThreshold,
	}, logr)

	solverSvc := service.NewSolverService(pipeline, runRepo, entryRepo, db, cacheRepo,
		cfg.Solver.ResultCacheTTL, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(runRepo, entryRepo, exportStore, logr)
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		OperatorEmail:        cfg.Auth.OperatorEmail,
		OperatorPasswordHash: cfg.Auth.OperatorPasswordHash,
		Secret:               cfg.JWT.Secret,
		Expiration:           cfg.JWT.Expiration,
		Issuer:               cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	schedulerHandler := handler.NewSchedulerHandler(solverSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authHandler.RegisterRoutes(api)
	schedulerHandler.RegisterRoutes(api, internalmiddleware.JWT(authSvc))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "engines", cfg.Solver.Engines)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
