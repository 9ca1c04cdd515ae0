package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-grade-report/api/swagger"
	"github.com/noah-isme/sma-grade-report/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-grade-report/internal/middleware"
	"github.com/noah-isme/sma-grade-report/internal/service"
	"github.com/noah-isme/sma-grade-report/pkg/config"
	"github.com/noah-isme/sma-grade-report/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-grade-report/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-grade-report/pkg/middleware/requestid"
)

// @title Grade Report API
// @version 0.1.0
// @description Builds final grade reports from uploaded identity and enrollment tables
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	ingestionSvc := service.NewIngestionService(logr, metricsSvc)
	reportSvc := service.NewReportService(logr, nil, nil)
	// uploads never touch the filesystem, so the run service gets no storage
	runSvc := service.NewRunService(nil, ingestionSvc, reportSvc, validator.New(), metricsSvc, logr)

	reportHandler := handler.NewReportHandler(runSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.Server.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(strings.TrimRight(cfg.Server.APIPrefix, "/"))
	api.POST("/reports", internalmiddleware.BodyLimit(cfg.Server.MaxUploadBytes), reportHandler.Generate)
	api.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction && cfg.Server.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api_prefix", cfg.Server.APIPrefix)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
