package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Booking   BookingConfig   `yaml:"booking"`
	Records   RecordsConfig   `yaml:"records"`
	Database  DatabaseConfig  `yaml:"database"`
	DocStore  DocStoreConfig  `yaml:"docstore"`
	Email     EmailConfig     `yaml:"email"`
	Redis     RedisConfig     `yaml:"redis"`
	Sync      SyncConfig      `yaml:"sync"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// AuthConfig holds the dashboard admin accounts and JWT settings.
type AuthConfig struct {
	JWTSecret          string       `yaml:"jwt_secret"`
	TokenExpiryMinutes int          `yaml:"token_expiry_minutes"`
	Admins             []AdminLogin `yaml:"admins"`
}

// AdminLogin is one dashboard account; PasswordHash is a bcrypt hash.
type AdminLogin struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

// ClientConfig is shared by the HTTP-based backend clients.
type ClientConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RetryCount     int    `yaml:"retry_count"`
	RetryDelayMS   int    `yaml:"retry_delay_ms"`
	RateLimit      int    `yaml:"rate_limit_per_minute"`
	RateBurst      int    `yaml:"rate_burst"`
	CircuitBreaker bool   `yaml:"circuit_breaker"`
}

// Timeout returns the per-call timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause before the transient-error retry.
func (c ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// BookingConfig points at the Booqable account.
type BookingConfig struct {
	ClientConfig `yaml:",inline"`
}

// RecordsConfig selects and configures the Records Backend.
type RecordsConfig struct {
	Type         string `yaml:"type"` // "airtable", "postgres" or "memory"
	ClientConfig `yaml:",inline"`
	BaseID       string       `yaml:"base_id"`
	Tables       RecordTables `yaml:"tables"`
}

// RecordTables maps logical tables onto backend table ids or names.
type RecordTables struct {
	Equipment      string `yaml:"equipment"`
	Repairs        string `yaml:"repairs"`
	EmailTemplates string `yaml:"email_templates"`
	ActivityLog    string `yaml:"activity_log"`
}

// DatabaseConfig contains PostgreSQL connection settings for the
// postgres record store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DocStoreConfig selects the Document Store. An empty type disables the
// mirror writes entirely.
type DocStoreConfig struct {
	Type            string `yaml:"type"` // "", "firestore" or "memory"
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Namespace       string `yaml:"namespace"`
}

// EmailConfig selects the email provider: sendgrid (default) or smtp.
type EmailConfig struct {
	Provider       string     `yaml:"provider"`
	SendGridAPIKey string     `yaml:"sendgrid_api_key"`
	Host           string     `yaml:"host"` // override for tests and proxies
	From           string     `yaml:"from"`
	FromName       string     `yaml:"from_name"`
	SMTP           SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RedisConfig configures the dashboard cache. An empty address disables it.
type RedisConfig struct {
	Addr                string `yaml:"addr"`
	Password            string `yaml:"password"`
	DB                  int    `yaml:"db"`
	DashboardTTLSeconds int    `yaml:"dashboard_ttl_seconds"`
}

// EntityPolicy controls the orchestrator for one entity type.
type EntityPolicy struct {
	AbortOnSecondaryFailure bool `yaml:"abort_on_secondary_failure"`
}

// SyncConfig holds per-entity orchestration policy and status polling knobs.
type SyncConfig struct {
	Equipment         EntityPolicy `yaml:"equipment"`
	Repairs           EntityPolicy `yaml:"repairs"`
	Rentals           EntityPolicy `yaml:"rentals"`
	RateLimitAttempts int          `yaml:"rate_limit_attempts"`
	RateLimitSleepMS  int          `yaml:"rate_limit_sleep_ms"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SyncRentalStatuses string `yaml:"sync_rental_statuses"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Secrets
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}
	if val := os.Getenv("BOOQABLE_API_KEY"); val != "" {
		c.Booking.APIKey = val
	}
	if val := os.Getenv("BOOQABLE_BASE_URL"); val != "" {
		c.Booking.BaseURL = val
	}
	if val := os.Getenv("AIRTABLE_API_KEY"); val != "" {
		c.Records.APIKey = val
	}
	if val := os.Getenv("AIRTABLE_BASE_ID"); val != "" {
		c.Records.BaseID = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Email.SMTP.Password = val
	}
	if val := os.Getenv("FIREBASE_PROJECT_ID"); val != "" {
		c.DocStore.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" && c.DocStore.CredentialsFile == "" {
		c.DocStore.CredentialsFile = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.Auth.TokenExpiryMinutes == 0 {
		c.Auth.TokenExpiryMinutes = 60
	}

	// Booking
	if c.Booking.BaseURL == "" {
		return fmt.Errorf("booking base_url is required")
	}
	if c.Booking.APIKey == "" {
		return fmt.Errorf("booking api_key is required")
	}
	applyClientDefaults(&c.Booking.ClientConfig)

	// Records
	c.Records.Type = strings.ToLower(c.Records.Type)
	switch c.Records.Type {
	case "", "airtable":
		c.Records.Type = "airtable"
		if c.Records.BaseURL == "" {
			c.Records.BaseURL = "https://api.airtable.com/v0"
		}
		if c.Records.APIKey == "" {
			return fmt.Errorf("records api_key is required for airtable")
		}
		if c.Records.BaseID == "" {
			return fmt.Errorf("records base_id is required for airtable")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for postgres records")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required for postgres records")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for postgres records")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported records type: %q", c.Records.Type)
	}
	applyClientDefaults(&c.Records.ClientConfig)
	if c.Records.Tables.Equipment == "" {
		c.Records.Tables.Equipment = "Equipment"
	}
	if c.Records.Tables.Repairs == "" {
		c.Records.Tables.Repairs = "Repairs"
	}
	if c.Records.Tables.EmailTemplates == "" {
		c.Records.Tables.EmailTemplates = "Email Templates"
	}
	if c.Records.Tables.ActivityLog == "" {
		c.Records.Tables.ActivityLog = "Activity Log"
	}

	// Document store
	c.DocStore.Type = strings.ToLower(c.DocStore.Type)
	switch c.DocStore.Type {
	case "", "memory":
	case "firestore":
		if c.DocStore.ProjectID == "" {
			return fmt.Errorf("docstore project_id is required for firestore")
		}
	default:
		return fmt.Errorf("unsupported docstore type: %q", c.DocStore.Type)
	}
	if c.DocStore.Namespace == "" {
		c.DocStore.Namespace = "gearshare"
	}

	// Email
	c.Email.Provider = strings.ToLower(c.Email.Provider)
	switch c.Email.Provider {
	case "", "sendgrid":
		c.Email.Provider = "sendgrid"
		if c.Email.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("smtp host is required")
		}
		if c.Email.SMTP.Port == 0 {
			c.Email.SMTP.Port = 587
		}
	default:
		return fmt.Errorf("unsupported email provider: %q", c.Email.Provider)
	}
	if c.Email.From == "" {
		return fmt.Errorf("email from address is required")
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "GearShare"
	}

	// Redis
	if c.Redis.DashboardTTLSeconds == 0 {
		c.Redis.DashboardTTLSeconds = 60
	}

	// Status sync
	if c.Sync.RateLimitAttempts == 0 {
		c.Sync.RateLimitAttempts = 3
	}
	if c.Sync.RateLimitSleepMS == 0 {
		c.Sync.RateLimitSleepMS = 1000
	}

	// Scheduler defaults
	if c.Scheduler.SyncRentalStatuses == "" {
		c.Scheduler.SyncRentalStatuses = "0 */15 * * * *" // every 15 minutes
	}

	return nil
}

func applyClientDefaults(c *ClientConfig) {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.RetryCount == 0 {
		c.RetryCount = 1
	}
	if c.RetryDelayMS == 0 {
		c.RetryDelayMS = 250
	}
	if c.RateLimit == 0 {
		c.RateLimit = 300
	}
	if c.RateBurst == 0 {
		c.RateBurst = 5
	}
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RateLimitSleep is the fixed pause between 429 retries in status sync.
func (c SyncConfig) RateLimitSleep() time.Duration {
	return time.Duration(c.RateLimitSleepMS) * time.Millisecond
}

// DashboardTTL is how long a cached dashboard summary stays valid.
func (c RedisConfig) DashboardTTL() time.Duration {
	return time.Duration(c.DashboardTTLSeconds) * time.Second
}
