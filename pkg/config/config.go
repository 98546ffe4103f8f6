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
	Server        ServerConfig
	Database      DatabaseConfig
	Ingest        IngestConfig
	Evaluation    EvaluationConfig
	Alerting      AlertingConfig
	Cache         CacheConfig
	Messaging     MessagingConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// IngestConfig настраивает источники сырых показаний датчиков.
// Поддерживаются два режима: S3 bucket polling и локальная drop-директория.
type IngestConfig struct {
	S3Enabled       bool
	S3Bucket        string
	S3Prefix        string
	S3Region        string
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PollInterval    time.Duration
	LocalDir        string
}

// EvaluationConfig настраивает оценку здоровья машин.
type EvaluationConfig struct {
	// SensorReadingThreshold - порог аномальной температуры (по умолчанию 100)
	SensorReadingThreshold float64
	// WindowHours - trailing окно оценки в часах (по умолчанию 24)
	WindowHours int
	// ScoringPolicy - "threshold" (каскад порогов) или "weighted" (взвешенный score)
	ScoringPolicy string
	// ValidationMode - "strict" (отбрасываем всю строку) или "lenient" (обнуляем поле)
	ValidationMode string
	// Interval - период между evaluation runs
	Interval time.Duration
	// ThresholdsFile - опциональный YAML с per-machine порогами температуры
	ThresholdsFile string
	// RetentionDays - срок хранения показаний, 0 отключает очистку
	RetentionDays int
}

type AlertingConfig struct {
	Enabled         bool
	Sender          string
	Recipients      []string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	HistoryTable    string
	MaxRetries      int
	InitialBackoff  time.Duration
}

type CacheConfig struct {
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

type MessagingConfig struct {
	Enabled bool
	NATSURL string
	Subject string
}

type ObservabilityConfig struct {
	CloudWatchEnabled bool
	Namespace         string
	LogGroupName      string
	LogStreamName     string
	Region            string
	Endpoint          string
	AccessKeyID       string
	SecretAccessKey   string
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	pollInterval, err := time.ParseDuration(getEnv("INGEST_POLL_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_POLL_INTERVAL: %w", err)
	}

	sensorThreshold, err := strconv.ParseFloat(getEnv("SENSOR_READING_THRESHOLD", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SENSOR_READING_THRESHOLD: %w", err)
	}

	windowHours, err := strconv.Atoi(getEnv("MACHINE_HEALTH_WINDOW_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid MACHINE_HEALTH_WINDOW_HOURS: %w", err)
	}
	if windowHours <= 0 {
		return nil, fmt.Errorf("MACHINE_HEALTH_WINDOW_HOURS must be positive")
	}

	evaluationInterval, err := time.ParseDuration(getEnv("EVALUATION_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVALUATION_INTERVAL: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("READING_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid READING_RETENTION_DAYS: %w", err)
	}
	if retentionDays < 0 {
		return nil, fmt.Errorf("READING_RETENTION_DAYS must not be negative")
	}

	scoringPolicy := getEnv("HEALTH_SCORING_POLICY", "weighted")
	if scoringPolicy != "weighted" && scoringPolicy != "threshold" {
		return nil, fmt.Errorf("HEALTH_SCORING_POLICY must be 'weighted' or 'threshold', got %q", scoringPolicy)
	}

	validationMode := getEnv("READING_VALIDATION_MODE", "strict")
	if validationMode != "strict" && validationMode != "lenient" {
		return nil, fmt.Errorf("READING_VALIDATION_MODE must be 'strict' or 'lenient', got %q", validationMode)
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	alertRetries, err := strconv.Atoi(getEnv("ALERT_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_MAX_RETRIES: %w", err)
	}

	alertBackoff, err := time.ParseDuration(getEnv("ALERT_INITIAL_BACKOFF", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_INITIAL_BACKOFF: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "factory"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Ingest: IngestConfig{
			S3Enabled:       getEnvBool("INGEST_S3_ENABLED", true),
			S3Bucket:        getEnv("INGEST_S3_BUCKET", "factory-sensor-data"),
			S3Prefix:        getEnv("INGEST_S3_PREFIX", "raw_data/"),
			S3Region:        getEnv("INGEST_S3_REGION", "us-east-1"),
			S3Endpoint:      getEnv("INGEST_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("INGEST_S3_USE_PATH_STYLE", true),
			PollInterval:    pollInterval,
			LocalDir:        getEnv("INGEST_LOCAL_DIR", ""),
		},
		Evaluation: EvaluationConfig{
			SensorReadingThreshold: sensorThreshold,
			WindowHours:            windowHours,
			ScoringPolicy:          scoringPolicy,
			ValidationMode:         validationMode,
			Interval:               evaluationInterval,
			ThresholdsFile:         getEnv("MACHINE_THRESHOLDS_FILE", ""),
			RetentionDays:          retentionDays,
		},
		Alerting: AlertingConfig{
			Enabled:         getEnvBool("ALERTING_ENABLED", true),
			Sender:          getEnv("ALERT_SENDER", "factory-alerts@smartfactory.com"),
			Recipients:      splitCSV(getEnv("ALERT_RECIPIENTS", "maintenance-team@smartfactory.com")),
			Region:          getEnv("ALERT_SES_REGION", "us-east-1"),
			Endpoint:        getEnv("ALERT_SES_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			HistoryTable:    getEnv("ALERT_HISTORY_TABLE", ""),
			MaxRetries:      alertRetries,
			InitialBackoff:  alertBackoff,
		},
		Cache: CacheConfig{
			Enabled:      getEnvBool("CACHE_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          cacheTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Messaging: MessagingConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			NATSURL: getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "factory.health.evaluated"),
		},
		Observability: ObservabilityConfig{
			CloudWatchEnabled: getEnvBool("CLOUDWATCH_ENABLED", false),
			Namespace:         getEnv("CLOUDWATCH_NAMESPACE", "FactoryHealth/Pipeline"),
			LogGroupName:      getEnv("CLOUDWATCH_LOG_GROUP", "/factory-health/runs"),
			LogStreamName:     getEnv("CLOUDWATCH_LOG_STREAM", "pipeline"),
			Region:            getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:          getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	if cfg.Alerting.Enabled && len(cfg.Alerting.Recipients) == 0 {
		return nil, fmt.Errorf("ALERT_RECIPIENTS is required when ALERTING_ENABLED=true")
	}

	if !cfg.Ingest.S3Enabled && cfg.Ingest.LocalDir == "" {
		return nil, fmt.Errorf("INGEST_LOCAL_DIR is required when INGEST_S3_ENABLED=false")
	}

	return cfg, nil
}

// Window возвращает trailing окно оценки как Duration.
func (c *EvaluationConfig) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
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

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
