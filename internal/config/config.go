package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string

	// Auth
	AuthMode  string // istio, jwt or dev
	JWTSecret string
	RBACURL   string

	// Redis
	RedisURL      string
	RedisPassword string

	// NATS
	NATSURL string

	// Imports
	MaxUploadBytes  int64
	SessionTTL      time.Duration
	CommitBatchSize int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxUploadMB, _ := strconv.Atoi(getEnv("IMPORT_MAX_UPLOAD_MB", "10"))
	batchSize, _ := strconv.Atoi(getEnv("IMPORT_COMMIT_BATCH_SIZE", "10"))
	sessionTTL, err := time.ParseDuration(getEnv("IMPORT_SESSION_TTL", "30m"))
	if err != nil {
		sessionTTL = 30 * time.Minute
	}

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "masareefy_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8095"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Auth - JWT secret from GCP Secret Manager if enabled
		AuthMode:  getEnv("AUTH_MODE", "istio"),
		JWTSecret: secrets.GetJWTSecret(),
		RBACURL:   getEnv("STAFF_SERVICE_URL", "http://staff-service.devtest.svc.cluster.local:8080"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: secrets.GetRedisPassword(),

		// NATS
		NATSURL: getEnv("NATS_URL", ""),

		// Imports
		MaxUploadBytes:  int64(maxUploadMB) << 20,
		SessionTTL:      sessionTTL,
		CommitBatchSize: batchSize,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
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

	return db, nil
}

// InitRedis returns nil when REDIS_URL is unset. Callers fall back to the
// in-memory session store in that case.
func InitRedis(cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if opt.Password == "" {
		opt.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
