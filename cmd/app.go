package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"variants-service/internal/completeness"
	"variants-service/internal/config"
	"variants-service/internal/events"
	"variants-service/internal/job"
	"variants-service/internal/repository"
	"variants-service/internal/validation"
	"variants-service/internal/variant"
)

// app holds the wired collaborators shared by the commands
type app struct {
	cfg          *config.Config
	logger       *logrus.Logger
	db           *gorm.DB
	redis        *redis.Client
	publisher    *events.Publisher
	deps         job.Dependencies
	runner       *job.Runner
	executions   *repository.JobExecutionRepository
	completeness *repository.CompletenessRepository
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	redisClient := config.InitRedis(cfg)
	cacheLayer := config.NewCacheLayer(redisClient)

	// Initialize event publisher only if NATS_URL is set
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, cfg.TenantID, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
			publisher = nil
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}

	identity := repository.NewIdentityMap()
	resolver := variant.NewResolver()
	entry := logrus.NewEntry(logger)

	deps := job.Dependencies{
		Families:     repository.NewFamilyRepository(db, identity),
		Queries:      repository.NewProductModelQueryBuilderFactory(db, cfg.CursorPageSize),
		Loader:       repository.NewVariantTreeLoader(db),
		Walker:       variant.NewWalker(resolver, validation.NewTreeValidator(resolver), completeness.NewCalculator(nil), entry),
		ModelSaver:   repository.NewProductModelSaver(db),
		ProductSaver: repository.NewProductSaver(db, cacheLayer),
		CacheClearer: identity,
		Logger:       entry,
		BulkSize:     cfg.BulkSize,
	}
	if cfg.FamilyLeaseEnabled && redisClient != nil {
		deps.Lease = repository.NewRedisFamilyLease(redisClient, cfg.FamilyLeaseTTL)
	}
	if publisher != nil {
		deps.Publisher = publisher
	}

	executions := repository.NewJobExecutionRepository(db)
	return &app{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		redis:        redisClient,
		publisher:    publisher,
		deps:         deps,
		runner:       job.NewRunner(executions, entry),
		executions:   executions,
		completeness: repository.NewCompletenessRepository(db, cacheLayer),
	}, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
