package telemetry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"TRACE": slog.LevelInfo,
	}

	for env, want := range tests {
		t.Run(env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", env)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	WithBatchID(NewLogger(&buf, slog.LevelInfo, "json"), "b1").Info("hello")
	assert.Contains(t, buf.String(), `"batch_id":"b1"`)

	buf.Reset()
	WithService(NewLogger(&buf, slog.LevelInfo, "text"), "http://api").Info("hello")
	assert.Contains(t, buf.String(), "service=http://api")
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Ticks.WithLabelValues(TickGenerated).Inc()
	m.PauseRequests.WithLabelValues(PauseApplied).Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks.WithLabelValues(TickGenerated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PauseRequests.WithLabelValues(PauseApplied)))

	require.Panics(t, func() { NewMetrics(reg) }, "duplicate registration must panic")
}
