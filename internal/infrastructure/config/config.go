package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported permission models
const (
	ModelLeveled = "leveled"
	ModelLegacy  = "legacy"
)

// Supported identity cache backends
const (
	CacheBackendMemory  = "memory"
	CacheBackendGoCache = "gocache"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	ACL      ACLConfig
	Discord  DiscordConfig
	Log      LogConfig
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int // Port for Prometheus metrics HTTP server
}

// CacheConfig represents identity cache configuration
type CacheConfig struct {
	Backend        string
	MaxMemoryBytes int64 // Only used by the memory backend
	Metrics        bool
	TTLSeconds     int // Time-to-live for resolved identity levels
}

// TTL returns the identity cache time-to-live
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

// ACLConfig represents permission model configuration
type ACLConfig struct {
	Model       string
	BotID       string
	BotOwnerID  string   // legacy single owner
	BotOwnerIDs []string // current owner set
}

// DiscordConfig represents the optional gateway session
type DiscordConfig struct {
	Token string
}

// Enabled reports whether a discord session should be opened
func (c *DiscordConfig) Enabled() bool {
	return c.Token != ""
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string
	Format string // json or console
}

// ProjectRoot finds the project root directory by looking for go.mod
func ProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	projectRoot, err := ProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	setDefaults()

	return nil
}

func setDefaults() {
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 50051)
	viper.SetDefault("METRICS_PORT", 9090)

	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 15432)
	viper.SetDefault("DB_USER", "monban")
	viper.SetDefault("DB_NAME", "monban_dev")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "data/monban.db")

	viper.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	viper.SetDefault("CACHE_MAX_MEMORY_BYTES", 16*1024*1024) // 16MB
	viper.SetDefault("CACHE_METRICS", true)
	viper.SetDefault("CACHE_TTL_SECONDS", 120)

	viper.SetDefault("ACL_MODEL", ModelLeveled)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
}

// Load loads configuration from viper
func Load() (*Config, error) {
	driver := strings.ToLower(viper.GetString("DB_DRIVER"))
	dbPassword := viper.GetString("DB_PASSWORD")

	switch driver {
	case DriverPostgres:
		// DB_PASSWORD is required for security
		if dbPassword == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %q", driver)
	}

	model := strings.ToLower(viper.GetString("ACL_MODEL"))
	if model != ModelLeveled && model != ModelLegacy {
		return nil, fmt.Errorf("unsupported ACL_MODEL: %q", model)
	}

	backend := strings.ToLower(viper.GetString("CACHE_BACKEND"))
	if backend != CacheBackendMemory && backend != CacheBackendGoCache {
		return nil, fmt.Errorf("unsupported CACHE_BACKEND: %q", backend)
	}

	ttl := viper.GetInt("CACHE_TTL_SECONDS")
	if ttl <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", ttl)
	}

	config := &Config{
		Server: ServerConfig{
			Host:        viper.GetString("SERVER_HOST"),
			Port:        viper.GetInt("SERVER_PORT"),
			MetricsPort: viper.GetInt("METRICS_PORT"),
		},
		Database: DatabaseConfig{
			Driver:     driver,
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetInt("DB_PORT"),
			User:       viper.GetString("DB_USER"),
			Password:   dbPassword,
			Database:   viper.GetString("DB_NAME"),
			SSLMode:    viper.GetString("DB_SSLMODE"),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Cache: CacheConfig{
			Backend:        backend,
			MaxMemoryBytes: viper.GetInt64("CACHE_MAX_MEMORY_BYTES"),
			Metrics:        viper.GetBool("CACHE_METRICS"),
			TTLSeconds:     ttl,
		},
		ACL: ACLConfig{
			Model:       model,
			BotID:       viper.GetString("BOT_ID"),
			BotOwnerID:  viper.GetString("BOT_OWNER_ID"),
			BotOwnerIDs: splitList(viper.GetString("BOT_OWNER_IDS")),
		},
		Discord: DiscordConfig{
			Token: viper.GetString("DISCORD_TOKEN"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
		},
	}

	return config, nil
}

// splitList splits a comma separated list, dropping empty items
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
