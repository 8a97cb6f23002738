package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeLevels(t *testing.T) {
	tests := []struct {
		level string
		want  LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warn", WARN},
		{"error", ERROR},
		{"FATAL", FATAL},
		{"bogus", INFO}, // unknown falls back to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			require.NoError(t, Initialize(tt.level))
			assert.Equal(t, tt.want, globalLogger.level)
			assert.Equal(t, "covtrace", globalLogger.name)
		})
	}
}

func TestPackageLogLevelOverrides(t *testing.T) {
	require.NoError(t, Initialize("info", map[string]string{
		"service.predictor": "debug",
		"service.*":         "warn",
	}))
	t.Cleanup(func() { _ = SetPackageLogLevels(nil) })

	// Exact match beats the wildcard.
	assert.Equal(t, DEBUG, GetPackageLogLevel("service.predictor"))
	assert.Equal(t, WARN, GetPackageLogLevel("service.cache"))
	// Unconfigured packages report no override.
	assert.Equal(t, LogLevel(-1), GetPackageLogLevel("api"))
}

func TestSetPackageLogLevelsRejectsInvalid(t *testing.T) {
	err := SetPackageLogLevels(map[string]string{"api": "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestWithFieldReturnsNewLogger(t *testing.T) {
	base := GetLogger("test")
	child := base.WithField("facility_id", "fac-1")

	assert.NotSame(t, base, child)
	assert.Empty(t, base.fields)
	assert.Equal(t, "fac-1", child.fields["facility_id"])
}

func TestWithFieldsMerges(t *testing.T) {
	logger := GetLogger("test").WithFields(
		Field("a", 1),
		Field("b", "two"),
	).WithField("a", 3)

	assert.Equal(t, 3, logger.fields["a"])
	assert.Equal(t, "two", logger.fields["b"])
}

func TestWithContextExtractsTraceFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey(), "trace-123")
	ctx = context.WithValue(ctx, SpanIDKey(), "span-456")

	fields := extractContextFields(ctx)
	require.NotNil(t, fields)
	assert.Equal(t, "trace-123", fields["trace_id"])
	assert.Equal(t, "span-456", fields["span_id"])

	assert.Nil(t, extractContextFields(context.Background()))
	assert.Nil(t, extractContextFields(nil))
}

func TestCloneFields(t *testing.T) {
	src := map[string]interface{}{"k": "v"}
	dst := cloneFields(src)

	dst["k"] = "changed"
	assert.Equal(t, "v", src["k"])

	assert.NotNil(t, cloneFields(nil))
	assert.Empty(t, cloneFields(nil))
}

func TestFatalUsesExitFunc(t *testing.T) {
	require.NoError(t, Initialize("info"))

	exitCode := -1
	origExit := exitFunc
	exitFunc = func(code int) { exitCode = code }
	t.Cleanup(func() { exitFunc = origExit })

	GetLogger("test").Fatal("boom")
	assert.Equal(t, 1, exitCode)
}

func TestMatchesPattern(t *testing.T) {
	assert.True(t, matchesPattern("graph.sync", "graph.sync"))
	assert.True(t, matchesPattern("graph.sync", "graph.*"))
	assert.False(t, matchesPattern("controller", "graph.*"))
	assert.False(t, matchesPattern("graphite", "graph.*"))
}
