package observability

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_WithGlobalProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordSearch(ctx, "articles", false, 12*time.Millisecond)
		m.RecordAdapter(ctx, "users", true, time.Millisecond)
		m.RecordCache(ctx, "profile", true)
		m.RecordBackgroundFailure(ctx, "log_event")
		m.RecordRequest(ctx, "GET", "/api/search", 200, time.Millisecond)
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSearch(context.Background(), "all", true, time.Second)
		m.RecordCache(context.Background(), "profile", false)
	})
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	InitLogger("islamwiki-search", "test", "")
	logger := LoggerFromContext(context.Background())
	require.NotNil(t, logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("", zerolog.InfoLevel))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn", zerolog.InfoLevel))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("verbose", zerolog.DebugLevel))
}
