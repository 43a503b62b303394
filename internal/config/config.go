package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Webhook   WebhookConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig locates the backing state file and its backups.
type StorageConfig struct {
	StateFile       string
	BackupDir       string
	BackupRetention int
}

// AuthConfig holds token signing and admin credential settings.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule        string
	BackupPruneSchedule string
	Timezone            string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables the archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
// Both fields must be set to enable the sheet sink.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// WebhookConfig points the daily report at an HTTP endpoint.
type WebhookConfig struct {
	URL string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if err := loadEnv(envFile); err != nil {
		return nil, err
	}

	storage, err := storageFromEnv()
	if err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(getenvWithDefault("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL must be a duration: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: storage,
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          ttl,
			AdminUsername:     getenvWithDefault("ADMIN_USERNAME", "admin"),
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Reporting: ReportingConfig{
			CronSchedule:        getenvWithDefault("REPORT_CRON_SCHEDULE", "0 23 * * *"),
			BackupPruneSchedule: getenvWithDefault("BACKUP_PRUNE_SCHEDULE", "30 3 * * *"),
			Timezone:            getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "restopos"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Webhook: WebhookConfig{
			URL: os.Getenv("REPORT_WEBHOOK_URL"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadStorage reads only the state file settings. Offline tools use it so they
// do not need the server secrets.
func LoadStorage(envFile string) (StorageConfig, error) {
	if err := loadEnv(envFile); err != nil {
		return StorageConfig{}, err
	}
	return storageFromEnv()
}

func loadEnv(envFile string) error {
	if envFile == "" {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed loading env file %s: %w", envFile, err)
	}
	return nil
}

func storageFromEnv() (StorageConfig, error) {
	retention, err := strconv.Atoi(getenvWithDefault("BACKUP_RETENTION", "50"))
	if err != nil {
		return StorageConfig{}, fmt.Errorf("BACKUP_RETENTION must be an integer: %w", err)
	}
	return StorageConfig{
		StateFile:       getenvWithDefault("STATE_FILE", "data/state.json"),
		BackupDir:       getenvWithDefault("BACKUP_DIR", "data/backups"),
		BackupRetention: retention,
	}, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Storage.StateFile == "":
		return errors.New("STATE_FILE must not be empty")
	case c.Storage.BackupDir == "":
		return errors.New("BACKUP_DIR must not be empty")
	case c.Storage.BackupRetention < 1:
		return errors.New("BACKUP_RETENTION must be at least 1")
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	if c.Auth.AdminUsername == "" {
		return errors.New("ADMIN_USERNAME must not be empty")
	}

	if c.Auth.AdminPassword == "" && c.Auth.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

// Location returns the configured time zone used for revenue buckets.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
