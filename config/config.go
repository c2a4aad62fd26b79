package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DIESEL_LOG_STORAGE_DSN
const EnvPrefix = "DIESEL_LOG"

// DefaultLocation is the display time zone of the depot
const DefaultLocation = "Asia/Kolkata"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Display  DisplayConfig  `mapstructure:"display"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Export   ExportConfig   `mapstructure:"export"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Title       string `mapstructure:"title"`
	Subtitle    string `mapstructure:"subtitle"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	UseHTTPS        bool          `mapstructure:"use_https"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig contains record store configuration
type StorageConfig struct {
	Type            string        `mapstructure:"type"` // sqlite, postgres
	DSN             string        `mapstructure:"dsn"`
	MaxConnections  int           `mapstructure:"max_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// DisplayConfig controls how instants are entered and shown
type DisplayConfig struct {
	Location string `mapstructure:"location"`
}

// FeedConfig controls the recent entries table
type FeedConfig struct {
	Limit int `mapstructure:"limit"`
}

// ExportConfig controls downloads
type ExportConfig struct {
	FilePrefix string `mapstructure:"file_prefix"`
}

// RealtimeConfig controls change notification delivery
type RealtimeConfig struct {
	SubscriberBuffer  int           `mapstructure:"subscriber_buffer"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	RetryMillis       int           `mapstructure:"retry_millis"`
	RedisURL          string        `mapstructure:"redis_url"`
	RedisChannel      string        `mapstructure:"redis_channel"`
}

// AuthConfig contains OpenID Connect sign-in configuration
type AuthConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	IssuerURL       string `mapstructure:"issuer_url"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	RedirectURL     string `mapstructure:"redirect_url"`
	SessionLifetime int64  `mapstructure:"session_lifetime"` // seconds
}

// Load reads .env, an optional YAML file and DIESEL_LOG_* environment
// variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath == "" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Conventional variables used by hosting platforms
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Storage.DSN = dsn
		if os.Getenv(EnvPrefix+"_STORAGE_TYPE") == "" && isPostgresURL(dsn) {
			cfg.Storage.Type = "postgres"
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &cfg.Server.Port); err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Feed.Limit <= 0 {
		return fmt.Errorf("feed.limit must be positive")
	}
	if c.Auth.Enabled && (c.Auth.IssuerURL == "" || c.Auth.ClientID == "" || c.Auth.ClientSecret == "" || c.Auth.RedirectURL == "") {
		return fmt.Errorf("auth.issuer_url, auth.client_id, auth.client_secret and auth.redirect_url are required when auth is enabled")
	}
	return nil
}

// Location resolves the display time zone. When the zone database is not
// available the Indian Standard Time offset is used for the default zone.
func (c *Config) Location() (*time.Location, error) {
	name := c.Display.Location
	if name == "" {
		name = DefaultLocation
	}

	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultLocation {
		return time.FixedZone("IST", 5*3600+30*60), nil
	}
	return nil, fmt.Errorf("unknown display location %q: %w", name, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "diesel-log")
	v.SetDefault("app.title", "TNSTC Diesel Log")
	v.SetDefault("app.subtitle", "Fuel Station Management System")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s") // SSE streams stay open
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.use_https", false)
	v.SetDefault("server.enable_metrics", true)

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.dsn", "diesel_log.db")
	v.SetDefault("storage.max_connections", 10)
	v.SetDefault("storage.conn_max_lifetime", "30m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file", "")

	v.SetDefault("display.location", DefaultLocation)
	v.SetDefault("feed.limit", 20)
	v.SetDefault("export.file_prefix", "TNSTC_Diesel_Logs")

	// Realtime defaults
	v.SetDefault("realtime.subscriber_buffer", 16)
	v.SetDefault("realtime.heartbeat_interval", "15s")
	v.SetDefault("realtime.retry_millis", 2000)
	v.SetDefault("realtime.redis_url", "")
	v.SetDefault("realtime.redis_channel", "diesel-log:changes")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer_url", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.redirect_url", "")
	v.SetDefault("auth.session_lifetime", 3600)
}
