package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Snapshot store drivers.
const (
	SnapshotDriverFile     = "file"
	SnapshotDriverSQLite   = "sqlite"
	SnapshotDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Summary  SummaryConfig
	Snapshot SnapshotConfig
	Autosave AutosaveConfig
	Exports  ExportsConfig
}

// DatabaseConfig is used by the postgres snapshot driver. URL, when set,
// replaces the individual connection fields.
type DatabaseConfig struct {
	URL            string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectRetries int
}

// RedisConfig is used by the summary cache. URL, when set, replaces the
// individual connection fields.
type RedisConfig struct {
	URL      string
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

// SummaryConfig governs caching of class and cohort summaries.
type SummaryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SnapshotConfig selects where the workspace snapshot is persisted.
type SnapshotConfig struct {
	Driver        string
	Dir           string
	SQLitePath    string
	WorkspaceName string
}

// AutosaveConfig tunes the debounced persistence trigger.
type AutosaveConfig struct {
	Delay   time.Duration
	Retries int
}

// ExportsConfig configures stored exports and their download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:            v.GetString("DATABASE_URL"),
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
	}

	cfg.Redis = RedisConfig{
		URL:      v.GetString("REDIS_URL"),
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

	cfg.Summary = SummaryConfig{
		CacheEnabled: v.GetBool("ENABLE_SUMMARY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Snapshot = SnapshotConfig{
		Driver:        strings.ToLower(strings.TrimSpace(v.GetString("SNAPSHOT_DRIVER"))),
		Dir:           v.GetString("SNAPSHOT_DIR"),
		SQLitePath:    v.GetString("SNAPSHOT_SQLITE_PATH"),
		WorkspaceName: v.GetString("WORKSPACE_NAME"),
	}

	retries := v.GetInt("AUTOSAVE_RETRIES")
	if retries < 0 {
		retries = 0
	}
	cfg.Autosave = AutosaveConfig{
		Delay:   parseDuration(v.GetString("AUTOSAVE_DELAY"), 450*time.Millisecond),
		Retries: retries,
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rubric_grader")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_RETRIES", 3)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SUMMARY_CACHE", false)
	v.SetDefault("SUMMARY_CACHE_TTL", "5m")

	v.SetDefault("SNAPSHOT_DRIVER", SnapshotDriverFile)
	v.SetDefault("SNAPSHOT_DIR", "./data")
	v.SetDefault("SNAPSHOT_SQLITE_PATH", "./data/rubric-grader.db")
	v.SetDefault("WORKSPACE_NAME", "default")

	v.SetDefault("AUTOSAVE_DELAY", "450ms")
	v.SetDefault("AUTOSAVE_RETRIES", 3)

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
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
