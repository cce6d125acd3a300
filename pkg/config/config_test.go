package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SearchConfig(t *testing.T) {
	t.Setenv("SEARCH_ADAPTER_TIMEOUT", "750ms")
	t.Setenv("SEARCH_INDEX_MATCH_POLICY", "all_terms_any_field")
	t.Setenv("SEARCH_REQUIRE_QUERY", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Search.AdapterTimeout)
	assert.Equal(t, "all_terms_any_field", cfg.Search.IndexMatchPolicy)
	assert.False(t, cfg.Search.RequireQuery)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.MinPageSize)
	assert.Equal(t, 50, cfg.Search.MaxPageSize)
	assert.Equal(t, 100, cfg.Search.SearchHistoryWindow)
	assert.Equal(t, 50, cfg.Search.ViewHistoryWindow)
	assert.Equal(t, "phrase_any_field", cfg.Search.IndexMatchPolicy)
	assert.Equal(t, "file://migrations", cfg.Database.MigrationsPath)
}

func TestLoad_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("SEARCH_API_MATCH_POLICY", "fuzzy")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadPageBounds(t *testing.T) {
	t.Setenv("SEARCH_MIN_PAGE_SIZE", "60")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseURL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "wiki", Password: "pw", Database: "islamwiki", SSLMode: "disable"}
	assert.Equal(t, "postgres://wiki:pw@db:5433/islamwiki?sslmode=disable", c.DatabaseURL())
}

func TestLoad_ServerConfig(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://islamwiki.org, ,https://admin.islamwiki.org")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://islamwiki.org", "https://admin.islamwiki.org"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}
