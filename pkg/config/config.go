package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Queue backend selectors shared by the ingestion and production pipelines.
const (
	QueueBackendMemory = "memory"
	QueueBackendRedis  = "redis"
)

// Extractor backend selectors.
const (
	ExtractorBackendTika  = "tika"
	ExtractorBackendLocal = "local"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Storage    StorageConfig
	Ingestion  IngestionConfig
	Production ProductionConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig locates the object store holding original bytes, extracted
// text and produced images.
type StorageConfig struct {
	BaseDir string
}

// IngestionConfig tunes the document ingestion pipeline.
type IngestionConfig struct {
	QueueBackend      string
	WorkerConcurrency int
	WorkerRetries     int
	RetryBackoff      time.Duration
	ExtractorBackend  string
	TikaURL           string
	TikaTimeout       time.Duration
	OCREnabled        bool
}

// ProductionConfig tunes the production (Bates stamping) pipeline. Worker
// concurrency is fixed at 1 because Bates numbering is a single gapless
// counter per job.
type ProductionConfig struct {
	QueueBackend    string
	WorkerRetries   int
	RetryBackoff    time.Duration
	OutputDir       string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// CacheConfig tunes the document metadata read cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		BaseDir: v.GetString("STORAGE_BASE_DIR"),
	}

	cfg.Ingestion = IngestionConfig{
		QueueBackend:      v.GetString("INGESTION_QUEUE_BACKEND"),
		WorkerConcurrency: v.GetInt("INGESTION_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("INGESTION_WORKER_RETRIES"),
		RetryBackoff:      parseDuration(v.GetString("INGESTION_RETRY_BACKOFF"), 2*time.Second),
		ExtractorBackend:  v.GetString("EXTRACTOR_BACKEND"),
		TikaURL:           v.GetString("TIKA_URL"),
		TikaTimeout:       parseDuration(v.GetString("TIKA_TIMEOUT"), 30*time.Second),
		OCREnabled:        v.GetBool("OCR_ENABLED"),
	}

	cfg.Production = ProductionConfig{
		QueueBackend:    v.GetString("PRODUCTION_QUEUE_BACKEND"),
		WorkerRetries:   v.GetInt("PRODUCTION_WORKER_RETRIES"),
		RetryBackoff:    parseDuration(v.GetString("PRODUCTION_RETRY_BACKOFF"), 2*time.Second),
		OutputDir:       v.GetString("PRODUCTION_OUTPUT_DIR"),
		SignedURLSecret: v.GetString("PRODUCTION_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("PRODUCTION_SIGNED_URL_TTL"), 24*time.Hour),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_DOCUMENT_CACHE"),
		TTL:     parseDuration(v.GetString("DOCUMENT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ediscovery")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_BASE_DIR", "./data")

	v.SetDefault("INGESTION_QUEUE_BACKEND", QueueBackendMemory)
	v.SetDefault("INGESTION_WORKER_CONCURRENCY", 2)
	v.SetDefault("INGESTION_WORKER_RETRIES", 2)
	v.SetDefault("INGESTION_RETRY_BACKOFF", "2s")
	v.SetDefault("EXTRACTOR_BACKEND", ExtractorBackendLocal)
	v.SetDefault("TIKA_URL", "http://localhost:9998")
	v.SetDefault("TIKA_TIMEOUT", "30s")
	v.SetDefault("OCR_ENABLED", false)

	v.SetDefault("PRODUCTION_QUEUE_BACKEND", QueueBackendMemory)
	v.SetDefault("PRODUCTION_WORKER_RETRIES", 2)
	v.SetDefault("PRODUCTION_RETRY_BACKOFF", "2s")
	v.SetDefault("PRODUCTION_OUTPUT_DIR", "productions")
	v.SetDefault("PRODUCTION_SIGNED_URL_SECRET", "dev_production_secret")
	v.SetDefault("PRODUCTION_SIGNED_URL_TTL", "24h")

	v.SetDefault("ENABLE_DOCUMENT_CACHE", false)
	v.SetDefault("DOCUMENT_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
