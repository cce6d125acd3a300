package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OTEL     OTELConfig
	Search   SearchConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Environment    string
	LogLevel       string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	MigrationsPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// SearchConfig holds the tunables of the search engine. Match policies are
// kept per entry point because the basic index, the advanced form and the
// JSON API combine multi-term queries differently.
type SearchConfig struct {
	TaxonomyPath string

	AdapterTimeout  time.Duration
	DefaultPageSize int
	MinPageSize     int
	MaxPageSize     int

	IndexMatchPolicy    string
	AdvancedMatchPolicy string
	APIMatchPolicy      string

	// RequireQuery makes an empty query short-circuit to an empty response
	// without touching the stores or the event log.
	RequireQuery bool

	SearchHistoryWindow int
	ViewHistoryWindow   int
	ProfileCacheTTL     int

	SuggestRatePerSecond float64
	SuggestBurst         int
	StatsCacheTTL        int
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Environment:    getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", ""),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", ""),
			Database:       getEnv("DB_NAME", "islamwiki"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "file://migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "islamwiki-search"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Search: SearchConfig{
			TaxonomyPath:         getEnv("SEARCH_TAXONOMY_PATH", "config/search_taxonomy.yaml"),
			AdapterTimeout:       getEnvAsDuration("SEARCH_ADAPTER_TIMEOUT", 3*time.Second),
			DefaultPageSize:      getEnvAsInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
			MinPageSize:          getEnvAsInt("SEARCH_MIN_PAGE_SIZE", 10),
			MaxPageSize:          getEnvAsInt("SEARCH_MAX_PAGE_SIZE", 50),
			IndexMatchPolicy:     getEnv("SEARCH_INDEX_MATCH_POLICY", "phrase_any_field"),
			AdvancedMatchPolicy:  getEnv("SEARCH_ADVANCED_MATCH_POLICY", "all_terms_any_field"),
			APIMatchPolicy:       getEnv("SEARCH_API_MATCH_POLICY", "all_terms_any_field"),
			RequireQuery:         getEnvAsBool("SEARCH_REQUIRE_QUERY", true),
			SearchHistoryWindow:  getEnvAsInt("SEARCH_HISTORY_WINDOW", 100),
			ViewHistoryWindow:    getEnvAsInt("SEARCH_VIEW_HISTORY_WINDOW", 50),
			ProfileCacheTTL:      getEnvAsInt("SEARCH_PROFILE_CACHE_TTL", 300),
			SuggestRatePerSecond: getEnvAsFloat("SEARCH_SUGGEST_RATE", 20),
			SuggestBurst:         getEnvAsInt("SEARCH_SUGGEST_BURST", 40),
			StatsCacheTTL:        getEnvAsInt("SEARCH_STATS_CACHE_TTL", 600),
		},
	}

	if err := cfg.Search.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SearchConfig) validate() error {
	if c.MinPageSize <= 0 || c.MaxPageSize < c.MinPageSize {
		return fmt.Errorf("invalid page size bounds: min=%d max=%d", c.MinPageSize, c.MaxPageSize)
	}
	if c.DefaultPageSize < c.MinPageSize || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default page size %d outside [%d,%d]", c.DefaultPageSize, c.MinPageSize, c.MaxPageSize)
	}
	for _, p := range []string{c.IndexMatchPolicy, c.AdvancedMatchPolicy, c.APIMatchPolicy} {
		if p != "phrase_any_field" && p != "all_terms_any_field" {
			return fmt.Errorf("unknown match policy %q", p)
		}
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL returns the URL form expected by the migration driver
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blank entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
