package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"variants-service/internal/config"
	"variants-service/internal/handlers"
	"variants-service/internal/job"
	"variants-service/internal/middleware"
	"variants-service/internal/subscribers"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(a *app) error {
	cfg := a.cfg

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	var err error
	if cfg.IsProduction() {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("variants-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("variants-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "variants_service")
	log.Println("✓ Prometheus metrics initialized")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("variants-service"))
	router.Use(middleware.CORS())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(a.db))
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true,
			Logger:             logrus.NewEntry(a.logger).WithField("component", "istio_auth"),
		}))
	}
	api.Use(middleware.TenantMiddleware(cfg.TenantID))

	launcher := job.NewLauncher(a.runner, a.deps)
	jobsHandler := handlers.NewJobsHandler(launcher, a.executions)
	completenessHandler := handlers.NewCompletenessHandler(a.completeness)

	jobs := api.Group("/jobs")
	{
		jobs.POST("/compute-family-variants", jobsHandler.ComputeFamilyVariants)
		jobs.POST("/family-variant-structure", jobsHandler.FamilyVariantStructure)
		jobs.GET("/:id", jobsHandler.GetExecution)
	}
	api.GET("/products/:identifier/completeness", completenessHandler.GetProductCompleteness)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var subscriber *subscribers.DefinitionSubscriber
	if cfg.NATSURL != "" {
		sub, err := subscribers.NewDefinitionSubscriber(cfg.NATSURL, launcher, a.logger)
		if err != nil {
			log.Printf("WARNING: Failed to create definition subscriber: %v (definition changes will not trigger jobs)", err)
		} else if err := sub.Start(); err != nil {
			log.Printf("WARNING: Failed to start definition subscriber: %v", err)
			sub.Close()
		} else {
			subscriber = sub
			log.Println("✓ Definition subscriber started")
		}
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Variants service starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down variants-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	if subscriber != nil {
		subscriber.Close()
	}

	jobsCtx, jobsCancel := context.WithTimeout(context.Background(), cfg.JobShutdownTimeout)
	defer jobsCancel()
	if err := a.runner.Shutdown(jobsCtx); err != nil {
		log.Printf("WARNING: Running jobs did not finish before shutdown: %v", err)
	} else {
		log.Println("✓ Running jobs finished")
	}
	if tracerProvider != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer tracerCancel()
		if err := tracerProvider.Shutdown(tracerCtx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Variants service stopped")
	return nil
}
