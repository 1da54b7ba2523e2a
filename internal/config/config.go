package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Farm      FarmConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Schedules ScheduleConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the zap level and encoding ("json" or "console").
type LogConfig struct {
	Level  string
	Format string
}

// FarmConfig is the tenant profile and its calendar.
type FarmConfig struct {
	Name      string
	Location  string
	Size      float64
	Units     string
	Timezone  string
	WeekStart string
}

// StoreConfig selects the Record Store implementation.
type StoreConfig struct {
	Driver string
}

// Record Store drivers.
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig holds session token and rate limit settings.
type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	ManagerID     string
}

// Enabled reports whether outbound messaging is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the spreadsheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ScheduleConfig holds the cron expressions of the background jobs.
type ScheduleConfig struct {
	DosePoll     string
	DoseDigest   string
	WeeklyReport string
	Snapshot     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getenvWithDefault("AUTH_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}
	rps, err := strconv.ParseFloat(getenvWithDefault("AUTH_RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getenvWithDefault("AUTH_RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_BURST: %w", err)
	}
	size, err := strconv.ParseFloat(getenvWithDefault("FARM_SIZE", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FARM_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "json"),
		},
		Farm: FarmConfig{
			Name:      getenvWithDefault("FARM_NAME", "My farm"),
			Location:  os.Getenv("FARM_LOCATION"),
			Size:      size,
			Units:     getenvWithDefault("FARM_UNITS", "hectares"),
			Timezone:  getenvWithDefault("TIMEZONE", "Africa/Conakry"),
			WeekStart: strings.ToLower(getenvWithDefault("WEEK_START", "sunday")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getenvWithDefault("STORE_DRIVER", DriverMongoDB)),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "herd"),
		},
		Auth: AuthConfig{
			JWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
			TokenTTL:       ttl,
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Schedules: ScheduleConfig{
			DosePoll:     getenvWithDefault("DOSE_POLL_SCHEDULE", "@every 1m"),
			DoseDigest:   getenvWithDefault("DOSE_DIGEST_SCHEDULE", "0 7 * * *"),
			WeeklyReport: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Snapshot:     getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "55 23 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if _, err := c.Farm.LoadLocation(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	if c.Farm.WeekStart != "sunday" && c.Farm.WeekStart != "monday" {
		return fmt.Errorf("WEEK_START must be sunday or monday, got %q", c.Farm.WeekStart)
	}
	if c.Farm.Units != "hectares" && c.Farm.Units != "acres" {
		return fmt.Errorf("FARM_UNITS must be hectares or acres, got %q", c.Farm.Units)
	}
	if c.Farm.Size < 0 {
		return errors.New("FARM_SIZE must not be negative")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be mongodb or memory, got %q", c.Store.Driver)
	}

	switch {
	case len(c.Auth.JWTSecret) < 16:
		return errors.New("AUTH_JWT_SECRET must be at least 16 characters")
	case c.Auth.TokenTTL <= 0:
		return errors.New("AUTH_TOKEN_TTL must be positive")
	case c.Auth.RateLimitRPS <= 0 || c.Auth.RateLimitBurst <= 0:
		return errors.New("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	switch {
	case c.Schedules.DosePoll == "":
		return errors.New("DOSE_POLL_SCHEDULE must be provided")
	case c.Schedules.DoseDigest == "":
		return errors.New("DOSE_DIGEST_SCHEDULE must be provided")
	case c.Schedules.WeeklyReport == "":
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	case c.Schedules.Snapshot == "":
		return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
	}

	return nil
}

// LoadLocation resolves the farm time zone.
func (c FarmConfig) LoadLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, errors.New("timezone is empty")
	}
	return time.LoadLocation(c.Timezone)
}

// FirstWeekday is the day dashboard weeks start on.
func (c FarmConfig) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
