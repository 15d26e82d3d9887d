package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Health     HealthConfig
	Redis      RedisConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Alerts     AlertStoreConfig
	Archive    ArchiveConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// HealthConfig управляет фоновым пересчетом и хранением истории
type HealthConfig struct {
	RecalculationInterval time.Duration
	RetentionDays         int
	MaxHistoryDuration    time.Duration
	WeeklyWindow          time.Duration
	TimeToFillWindow      time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

type CloudWatchConfig struct {
	MetricsEnabled           bool
	Region                   string
	Endpoint                 string
	AccessKeyID              string
	SecretAccessKey          string
	MetricsNamespace         string
	MetricsDimensions        map[string]string
	MetricsBufferSize        int
	MetricsFlushInterval     time.Duration
	MetricsStorageResolution int32
}

// AlertStoreConfig описывает таблицу DynamoDB для жизненного цикла alert'ов
type AlertStoreConfig struct {
	Enabled         bool
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// ArchiveConfig описывает S3 bucket для JSON-отчетов о расчетах
type ArchiveConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

type SecurityConfig struct {
	AuthEnabled    bool
	AuthToken      string
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	recalcInterval, err := time.ParseDuration(getEnv("HEALTH_RECALCULATION_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_RECALCULATION_INTERVAL: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("HEALTH_RETENTION_DAYS", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_RETENTION_DAYS: %w", err)
	}

	maxHistory, err := time.ParseDuration(getEnv("HEALTH_MAX_HISTORY_DURATION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_MAX_HISTORY_DURATION: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnv("REDIS_CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_CACHE_TTL: %w", err)
	}

	flushInterval, err := time.ParseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "hiresphere"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Health: HealthConfig{
			RecalculationInterval: recalcInterval,
			RetentionDays:         retentionDays,
			MaxHistoryDuration:    maxHistory,
			WeeklyWindow:          7 * 24 * time.Hour,
			TimeToFillWindow:      90 * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          redisTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "pipeline.health"),
		},
		CloudWatch: CloudWatchConfig{
			MetricsEnabled:           getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			Region:                   getEnv("AWS_REGION", "us-east-1"),
			Endpoint:                 getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:              getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:          getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MetricsNamespace:         getEnv("CLOUDWATCH_METRICS_NAMESPACE", "HireSphere/PipelineHealth"),
			MetricsDimensions:        parseDimensions(getEnv("CLOUDWATCH_METRICS_DIMENSIONS", "Environment=development")),
			MetricsBufferSize:        50,
			MetricsFlushInterval:     flushInterval,
			MetricsStorageResolution: 60,
		},
		Alerts: AlertStoreConfig{
			Enabled:         getEnvBool("ALERTS_DYNAMODB_ENABLED", false),
			TableName:       getEnv("ALERTS_DYNAMODB_TABLE", "pipeline-health-alerts"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("DYNAMODB_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			StrongReads:     getEnvBool("ALERTS_DYNAMODB_STRONG_READS", false),
		},
		Archive: ArchiveConfig{
			Enabled:         getEnvBool("REPORT_ARCHIVE_ENABLED", false),
			Bucket:          getEnv("REPORT_ARCHIVE_BUCKET", ""),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			KeyPrefix:       getEnv("REPORT_ARCHIVE_KEY_PREFIX", "health-reports"),
		},
		Security: SecurityConfig{
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность включенных интеграций
func (c *Config) Validate() error {
	if c.Security.AuthEnabled && strings.TrimSpace(c.Security.AuthToken) == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if c.Health.RecalculationInterval <= 0 {
		return fmt.Errorf("HEALTH_RECALCULATION_INTERVAL must be positive")
	}
	if c.Health.RetentionDays <= 0 {
		return fmt.Errorf("HEALTH_RETENTION_DAYS must be positive")
	}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Bucket) == "" {
		return fmt.Errorf("REPORT_ARCHIVE_BUCKET is required when REPORT_ARCHIVE_ENABLED=true")
	}
	if c.Alerts.Enabled && strings.TrimSpace(c.Alerts.TableName) == "" {
		return fmt.Errorf("ALERTS_DYNAMODB_TABLE is required when ALERTS_DYNAMODB_ENABLED=true")
	}
	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// parseDimensions разбирает строку вида "Key=Value,Key2=Value2"
func parseDimensions(raw string) map[string]string {
	result := make(map[string]string)
	for _, pair := range splitCSV(raw) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" || value == "" {
			continue
		}
		result[key] = value
	}
	return result
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
