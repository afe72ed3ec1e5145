package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/veil/pkg/observability"
	"github.com/platinummonkey/veil/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration for redaction artifacts
	Storage storage.Config `yaml:"storage"`

	// Database configuration (jobs, audit trail)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (detection cache, distributed rate limits)
	Redis RedisConfig `yaml:"redis"`

	// Sidecars configuration (NER, OCR, ASR, face model services)
	Sidecars SidecarsConfig `yaml:"sidecars"`

	// Engine configuration (detection and redaction tuning)
	Engine EngineConfig `yaml:"engine"`

	// Jobs configuration
	Jobs JobsConfig `yaml:"jobs"`

	// Audit trail configuration
	Audit AuditConfig `yaml:"audit"`

	// Auth configuration
	Auth AuthConfig `yaml:"auth"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds the relational database settings. Driver is
// "postgres" or "sqlite3"; DSN is the matching connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig holds Redis settings. Addr empty disables Redis entirely;
// the service degrades to in-process caching and rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SidecarsConfig holds the model sidecar endpoints
type SidecarsConfig struct {
	NERURL  string        `yaml:"ner_url"`
	OCRURL  string        `yaml:"ocr_url"`
	ASRURL  string        `yaml:"asr_url"`
	FaceURL string        `yaml:"face_url"`
	Timeout time.Duration `yaml:"timeout"`

	// OAuth2 client credentials for sidecar authentication (optional)
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	OAuthTokenURL     string `yaml:"oauth_token_url"`
}

// EngineConfig holds detection and redaction tuning
type EngineConfig struct {
	OverlapThreshold float64       `yaml:"overlap_threshold"`
	ConfidenceBoost  float64       `yaml:"confidence_boost"`
	MaxVerifyRetries int           `yaml:"max_verify_retries"`
	AnonymizeSeed    int64         `yaml:"anonymize_seed"`
	CacheSize        int           `yaml:"cache_size"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	BatchConcurrency int           `yaml:"batch_concurrency"`

	// PatternDir holds extra detection pattern packs (optional)
	PatternDir string `yaml:"pattern_dir"`
}

// JobsConfig holds async job settings
type JobsConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AuditConfig holds audit trail sink settings
type AuditConfig struct {
	FileEnabled  bool   `yaml:"file_enabled"`
	FilePath     string `yaml:"file_path"`
	FileMaxSize  int64  `yaml:"file_max_size"`
	FileMaxFiles int    `yaml:"file_max_files"`
	DBEnabled    bool   `yaml:"db_enabled"`
}

// APIKey is one configured API credential
type APIKey struct {
	ID     string `yaml:"id"`
	Secret string `yaml:"secret"`
}

// AuthConfig holds API authentication settings
type AuthConfig struct {
	// Keys are the accepted API credentials. Empty means auth is optional.
	Keys []APIKey `yaml:"keys"`
	// RateLimitEnabled toggles request rate limiting
	RateLimitEnabled bool `yaml:"rate_limit_enabled"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables. If
// VEIL_CONFIG_FILE is set, the YAML file is loaded first and environment
// variables override it.
func LoadConfig() (*Config, error) {
	if path := getEnv("VEIL_CONFIG_FILE", ""); path != "" {
		return LoadConfigFile(path)
	}

	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Sidecars:      loadSidecarsConfig(),
		Engine:        loadEngineConfig(),
		Jobs:          loadJobsConfig(),
		Audit:         loadAuditConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML file, with environment
// variables layered on top.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Sidecars:      loadSidecarsConfig(),
		Engine:        loadEngineConfig(),
		Jobs:          loadJobsConfig(),
		Audit:         loadAuditConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	// YAML fills in anything the environment left at its default; env
	// vars win because loadXConfig already resolved them.
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	mergeConfig(cfg, &file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// mergeConfig copies values from file into cfg for fields the
// environment did not set explicitly.
func mergeConfig(cfg, file *Config) {
	if os.Getenv("VEIL_HOST") == "" && file.Server.Host != "" {
		cfg.Server.Host = file.Server.Host
	}
	if os.Getenv("VEIL_PORT") == "" && file.Server.Port != "" {
		cfg.Server.Port = file.Server.Port
	}
	if os.Getenv("VEIL_STORAGE_TYPE") == "" && file.Storage.Type != "" {
		cfg.Storage.Type = file.Storage.Type
	}
	if os.Getenv("VEIL_FILESYSTEM_ROOT") == "" && file.Storage.FilesystemRoot != "" {
		cfg.Storage.FilesystemRoot = file.Storage.FilesystemRoot
	}
	if os.Getenv("VEIL_S3_ENDPOINT") == "" && file.Storage.S3Endpoint != "" {
		cfg.Storage.S3Endpoint = file.Storage.S3Endpoint
	}
	if os.Getenv("VEIL_S3_BUCKET") == "" && file.Storage.S3Bucket != "" {
		cfg.Storage.S3Bucket = file.Storage.S3Bucket
	}
	if os.Getenv("VEIL_DB_DRIVER") == "" && file.Database.Driver != "" {
		cfg.Database.Driver = file.Database.Driver
	}
	if os.Getenv("VEIL_DB_DSN") == "" && file.Database.DSN != "" {
		cfg.Database.DSN = file.Database.DSN
	}
	if os.Getenv("VEIL_REDIS_ADDR") == "" && file.Redis.Addr != "" {
		cfg.Redis.Addr = file.Redis.Addr
	}
	if os.Getenv("VEIL_NER_URL") == "" && file.Sidecars.NERURL != "" {
		cfg.Sidecars.NERURL = file.Sidecars.NERURL
	}
	if os.Getenv("VEIL_OCR_URL") == "" && file.Sidecars.OCRURL != "" {
		cfg.Sidecars.OCRURL = file.Sidecars.OCRURL
	}
	if os.Getenv("VEIL_ASR_URL") == "" && file.Sidecars.ASRURL != "" {
		cfg.Sidecars.ASRURL = file.Sidecars.ASRURL
	}
	if os.Getenv("VEIL_FACE_URL") == "" && file.Sidecars.FaceURL != "" {
		cfg.Sidecars.FaceURL = file.Sidecars.FaceURL
	}
	if len(file.Auth.Keys) > 0 && os.Getenv("VEIL_API_KEYS") == "" {
		cfg.Auth.Keys = file.Auth.Keys
	}
	if os.Getenv("VEIL_PATTERN_DIR") == "" && file.Engine.PatternDir != "" {
		cfg.Engine.PatternDir = file.Engine.PatternDir
	}
	if os.Getenv("VEIL_JOB_TTL") == "" && file.Jobs.TTL > 0 {
		cfg.Jobs.TTL = file.Jobs.TTL
	}
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("VEIL_HOST", "0.0.0.0"),
		Port:            getEnv("VEIL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("VEIL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("VEIL_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvDuration("VEIL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("VEIL_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("VEIL_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads artifact storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("VEIL_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}
	if fsRoot := getEnv("VEIL_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}
	if s3Endpoint := getEnv("VEIL_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("VEIL_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("VEIL_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("VEIL_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("VEIL_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if s3UsePathStyle := getEnv("VEIL_S3_USE_PATH_STYLE", ""); s3UsePathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(s3UsePathStyle) == "true"
	}
	if timeout := getEnvDuration("VEIL_S3_TIMEOUT", 0); timeout > 0 {
		cfg.S3Timeout = timeout
	}

	return cfg
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver: getEnv("VEIL_DB_DRIVER", "sqlite3"),
		DSN:    getEnv("VEIL_DB_DSN", "file:veil.db?_journal_mode=WAL"),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("VEIL_REDIS_ADDR", ""),
		Password: getEnv("VEIL_REDIS_PASSWORD", ""),
		DB:       getEnvInt("VEIL_REDIS_DB", 0),
	}
}

func loadSidecarsConfig() SidecarsConfig {
	return SidecarsConfig{
		NERURL:            getEnv("VEIL_NER_URL", ""),
		OCRURL:            getEnv("VEIL_OCR_URL", ""),
		ASRURL:            getEnv("VEIL_ASR_URL", ""),
		FaceURL:           getEnv("VEIL_FACE_URL", ""),
		Timeout:           getEnvDuration("VEIL_SIDECAR_TIMEOUT", 30*time.Second),
		OAuthClientID:     getEnv("VEIL_SIDECAR_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("VEIL_SIDECAR_OAUTH_CLIENT_SECRET", ""),
		OAuthTokenURL:     getEnv("VEIL_SIDECAR_OAUTH_TOKEN_URL", ""),
	}
}

func loadEngineConfig() EngineConfig {
	return EngineConfig{
		OverlapThreshold: getEnvFloat("VEIL_OVERLAP_THRESHOLD", 0.5),
		ConfidenceBoost:  getEnvFloat("VEIL_CONFIDENCE_BOOST", 0.10),
		MaxVerifyRetries: getEnvInt("VEIL_MAX_VERIFY_RETRIES", 2),
		AnonymizeSeed:    getEnvInt64("VEIL_ANONYMIZE_SEED", 0),
		CacheSize:        getEnvInt("VEIL_CACHE_SIZE", 1024),
		CacheTTL:         getEnvDuration("VEIL_CACHE_TTL", 5*time.Minute),
		BatchConcurrency: getEnvInt("VEIL_BATCH_CONCURRENCY", 8),
		PatternDir:       getEnv("VEIL_PATTERN_DIR", ""),
	}
}

func loadJobsConfig() JobsConfig {
	return JobsConfig{
		TTL: getEnvDuration("VEIL_JOB_TTL", time.Hour),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		FileEnabled:  getEnvBool("VEIL_AUDIT_FILE_ENABLED", true),
		FilePath:     getEnv("VEIL_AUDIT_FILE_PATH", "/var/log/veil/audit"),
		FileMaxSize:  getEnvInt64("VEIL_AUDIT_FILE_MAX_SIZE", 100*1024*1024),
		FileMaxFiles: getEnvInt("VEIL_AUDIT_FILE_MAX_FILES", 10),
		DBEnabled:    getEnvBool("VEIL_AUDIT_DB_ENABLED", true),
	}
}

// loadAuthConfig parses VEIL_API_KEYS as a comma-separated list of
// id:secret pairs.
func loadAuthConfig() AuthConfig {
	cfg := AuthConfig{
		RateLimitEnabled: getEnvBool("VEIL_RATE_LIMIT_ENABLED", true),
	}
	raw := getEnv("VEIL_API_KEYS", "")
	if raw == "" {
		return cfg
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		cfg.Keys = append(cfg.Keys, APIKey{ID: parts[0], Secret: parts[1]})
	}
	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("VEIL_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("VEIL_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("VEIL_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("VEIL_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("VEIL_OTEL_SERVICE_NAME", "veil-api"),
		OTelServiceVersion: getEnv("VEIL_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("VEIL_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be filesystem or s3)", c.Storage.Type)
	}

	// Validate database config
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	// Validate engine tuning
	if c.Engine.OverlapThreshold <= 0 || c.Engine.OverlapThreshold > 1 {
		return fmt.Errorf("overlap threshold must be in (0, 1]")
	}
	if c.Engine.ConfidenceBoost < 0 || c.Engine.ConfidenceBoost > 1 {
		return fmt.Errorf("confidence boost must be in [0, 1]")
	}
	if c.Engine.MaxVerifyRetries < 0 {
		return fmt.Errorf("max verify retries must not be negative")
	}
	if c.Engine.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1")
	}

	if c.Jobs.TTL <= 0 {
		return fmt.Errorf("job TTL must be positive")
	}

	// OAuth credentials come as a set or not at all
	oauthSet := c.Sidecars.OAuthClientID != "" || c.Sidecars.OAuthClientSecret != "" || c.Sidecars.OAuthTokenURL != ""
	oauthComplete := c.Sidecars.OAuthClientID != "" && c.Sidecars.OAuthClientSecret != "" && c.Sidecars.OAuthTokenURL != ""
	if oauthSet && !oauthComplete {
		return fmt.Errorf("sidecar OAuth requires client ID, client secret, and token URL together")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	return observability.ParseLevel(level)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
