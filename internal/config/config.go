package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"variants-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// NATS, empty disables event publishing
	NATSURL  string
	TenantID string

	// Server
	Port        string
	Environment string

	// Recomputation jobs
	BulkSize           int
	CursorPageSize     int
	FamilyLeaseEnabled bool
	FamilyLeaseTTL     time.Duration
	JobShutdownTimeout time.Duration
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	bulkSize, _ := strconv.Atoi(getEnv("BULK_SIZE", "100"))
	cursorPageSize, _ := strconv.Atoi(getEnv("CURSOR_PAGE_SIZE", "500"))
	leaseEnabled, _ := strconv.ParseBool(getEnv("FAMILY_LEASE_ENABLED", "false"))
	leaseTTL, err := time.ParseDuration(getEnv("FAMILY_LEASE_TTL", "15m"))
	if err != nil {
		leaseTTL = 15 * time.Minute
	}
	jobShutdownTimeout, err := time.ParseDuration(getEnv("JOB_SHUTDOWN_TIMEOUT", "2m"))
	if err != nil {
		jobShutdownTimeout = 2 * time.Minute
	}

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "variants_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		NATSURL:  os.Getenv("NATS_URL"),
		TenantID: getEnv("TENANT_ID", "default"),

		Port:        getEnv("PORT", "8095"),
		Environment: getEnv("ENVIRONMENT", "development"),

		BulkSize:           bulkSize,
		CursorPageSize:     cursorPageSize,
		FamilyLeaseEnabled: leaseEnabled,
		FamilyLeaseTTL:     leaseTTL,
		JobShutdownTimeout: jobShutdownTimeout,
	}
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Running auto-migrations...")
	if err := Migrate(db); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

// Migrate creates or updates the catalog and job tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Attribute{},
		&models.Channel{},
		&models.Family{},
		&models.AttributeRequirement{},
		&models.FamilyVariant{},
		&models.ProductModel{},
		&models.Product{},
		&models.Completeness{},
		&models.JobExecution{},
	)
}

// InitRedis connects to redis. A nil client is returned when redis is unreachable.
func InitRedis(cfg *Config) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching and family leases disabled)", err)
		client.Close()
		return nil
	}
	log.Println("✓ Redis connected successfully")
	return client
}

// NewCacheLayer wraps the redis client for the completeness cache
func NewCacheLayer(client *redis.Client) *cache.CacheLayer {
	if client == nil {
		return nil
	}
	return cache.NewCacheLayerFromClient(client, cache.CacheConfig{
		L1Enabled:  true,
		L1MaxItems: 5000,
		L1TTL:      30 * time.Second,
		DefaultTTL: 5 * time.Minute,
		KeyPrefix:  "tesseract:variants:",
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
