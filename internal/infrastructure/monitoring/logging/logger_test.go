package logging_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
)

func TestFieldConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logging.Field{Key: "k", Value: "v"}, logging.String("k", "v"))
	assert.Equal(t, logging.Field{Key: "n", Value: 7}, logging.Int("n", 7))
	assert.Equal(t, logging.Field{Key: "tid", Value: int64(501)}, logging.Int64("tid", 501))
	assert.Equal(t, logging.Field{Key: "ok", Value: true}, logging.Bool("ok", true))
	assert.Equal(t, logging.Field{Key: "d", Value: time.Second}, logging.Duration("d", time.Second))

	assert.Equal(t, logging.Field{Key: "error", Value: "<nil>"}, logging.Err(nil))
	assert.Equal(t, logging.Field{Key: "error", Value: "boom"}, logging.Err(stderrors.New("boom")))
}

func TestNewLogger_DefaultsApplied(t *testing.T) {
	t.Parallel()

	l, err := logging.NewLogger(logging.LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	t.Parallel()

	l, err := logging.NewLogger(logging.LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestLogger_EmitsFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := logging.NewLoggerFromCore(core)

	l.Info("sync started", logging.String("category", "GST"), logging.Int("page", 2))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sync started", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GST", fields["category"])
	assert.EqualValues(t, 2, fields["page"])
}

func TestLogger_WithAddsPersistentFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := logging.NewLoggerFromCore(core).With(logging.String("component", "orchestrator"))

	l.Warn("page fetch retry")
	l.Error("detail fetch failed")

	for _, e := range logs.All() {
		assert.Equal(t, "orchestrator", e.ContextMap()["component"])
	}
	assert.Equal(t, 2, logs.Len())
}

func TestLogger_DebugFilteredAtInfoLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := logging.NewLoggerFromCore(core)

	l.Debug("noise")
	assert.Zero(t, logs.Len())
}

func TestSetLevel_RaisesAndLowersSeverity(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "app.log")
	l, err := logging.NewLogger(logging.LogConfig{Level: "info", OutputPaths: []string{out}})
	require.NoError(t, err)

	l.Debug("hidden at info")

	setter, ok := l.(logging.LevelSetter)
	require.True(t, ok, "zap-backed logger supports runtime level changes")
	setter.SetLevel("debug")

	named := l.Named("child")
	named.Debug("visible after reload")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden at info")
	assert.Contains(t, string(data), "visible after reload")
}

func TestNopLogger_SafeEverywhere(t *testing.T) {
	t.Parallel()

	l := logging.NewNopLogger()
	l.Debug("a")
	l.Info("b", logging.Err(stderrors.New("x")))
	l.Warn("c")
	l.Error("d")
	assert.NotNil(t, l.With(logging.String("k", "v")))
	assert.NotNil(t, l.Named("child"))
}

func TestSetDefault(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := logging.NewLoggerFromCore(core)

	logging.SetDefault(l)
	defer logging.SetDefault(logging.NewNopLogger())

	logging.Default().Info("via default")
	assert.Equal(t, 1, logs.Len())

	// nil must not replace the current default
	logging.SetDefault(nil)
	logging.Default().Info("still works")
	assert.Equal(t, 2, logs.Len())
}
