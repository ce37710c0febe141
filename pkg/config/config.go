package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	OAuth     OAuthConfig
	JWT       JWTConfig
	Anthropic AnthropicConfig
	Storage   StorageConfig
	Analysis  AnalysisConfig
	Sync      SyncConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	SecretKey       string   `envconfig:"SECRET_KEY"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
	SecureCookies   bool     `envconfig:"SECURE_COOKIES" default:"false"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"networking"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	Google GoogleOAuthConfig
}

// GoogleOAuthConfig holds Google OAuth configuration
type GoogleOAuthConfig struct {
	Enabled      bool   `envconfig:"GOOGLE_ENABLED" default:"true"`
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/auth/google/callback"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string        `envconfig:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET"`
	AccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"24h"`
	RefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"720h"`
}

// AnthropicConfig holds the LLM provider configuration
type AnthropicConfig struct {
	APIKey    string        `envconfig:"ANTHROPIC_API_KEY"`
	BaseURL   string        `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	Model     string        `envconfig:"ANTHROPIC_MODEL" default:"claude-3-sonnet-20240229"`
	MaxTokens int           `envconfig:"ANTHROPIC_MAX_TOKENS" default:"1000"`
	Timeout   time.Duration `envconfig:"ANTHROPIC_TIMEOUT" default:"30s"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"networking-analysis"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// AnalysisConfig controls the background analysis workers
type AnalysisConfig struct {
	Workers     int           `envconfig:"ANALYSIS_WORKERS" default:"2"`
	QueueName   string        `envconfig:"ANALYSIS_QUEUE" default:"networking:analysis"`
	PollTimeout time.Duration `envconfig:"ANALYSIS_POLL_TIMEOUT" default:"5s"`
	JobTimeout  time.Duration `envconfig:"ANALYSIS_JOB_TIMEOUT" default:"2m"`
	MaxAttempts int           `envconfig:"ANALYSIS_MAX_ATTEMPTS" default:"3"`
	ArchiveRaw  bool          `envconfig:"ANALYSIS_ARCHIVE_RAW" default:"true"`
}

// SyncConfig controls Google synchronisation and duplicate detection
type SyncConfig struct {
	PageSize           int     `envconfig:"SYNC_PAGE_SIZE" default:"100"`
	DuplicateThreshold float64 `envconfig:"DUPLICATE_THRESHOLD" default:"0.8"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv decodes the configuration from the process environment without validating it
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the environment required to run is present.
// All missing variables are reported together.
func (c *Config) Validate() error {
	var missing []string

	if c.Anthropic.APIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.Server.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.OAuth.Google.Enabled {
		if c.OAuth.Google.ClientID == "" {
			missing = append(missing, "GOOGLE_CLIENT_ID")
		}
		if c.OAuth.Google.ClientSecret == "" {
			missing = append(missing, "GOOGLE_CLIENT_SECRET")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be at least 1")
	}
	return nil
}

// AccessSecret falls back to SECRET_KEY when no dedicated JWT secret is set
func (c *Config) AccessSecret() string {
	if c.JWT.AccessSecret != "" {
		return c.JWT.AccessSecret
	}
	return c.Server.SecretKey
}

// RefreshSecret falls back to a SECRET_KEY derived value when no dedicated JWT secret is set
func (c *Config) RefreshSecret() string {
	if c.JWT.RefreshSecret != "" {
		return c.JWT.RefreshSecret
	}
	return c.Server.SecretKey + ":refresh"
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
