package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "parking-api", "production", "")

	logger.Info().Int("lots", 12).Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "parking-api", entry["service"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "loaded", entry["message"])
	assert.EqualValues(t, 12, entry["lots"])
	assert.Contains(t, entry, "caller")
}

func TestNewLogger_ConsoleInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "parking-api", "development", "")

	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "parking-api", "production", "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, zerolog.DebugLevel, parseLevel("", true))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud", false))
}

func TestLoggerFromContext_WithoutSpan(t *testing.T) {
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestLoggerFromContext_UsesAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	attached := zerolog.New(&buf).With().Str("request_id", "r-1").Logger()
	ctx := attached.WithContext(context.Background())

	LoggerFromContext(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"request_id":"r-1"`)
}

func TestRecorders_AcceptNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/api/lots", 200, time.Millisecond)
		RecordDBMetric(ctx, nil, "list", time.Millisecond)
		RecordCacheHit(ctx, nil, "k")
		RecordCacheMiss(ctx, nil, "k")
		RecordLotsLoaded(ctx, nil, "file", 3)
		RecordPlaceResolve(ctx, nil, true)
	})
}

func TestInitMetrics_OnDefaultProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		RecordRequestMetric(context.Background(), m, "GET", "/health", 200, time.Millisecond)
		RecordLotsLoaded(context.Background(), m, "file", 3)
	})
}
