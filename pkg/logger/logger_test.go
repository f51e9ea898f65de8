package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// swapGlobal installs an observed logger and restores the previous one
// when the test ends.
func swapGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := globalLogger
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = prev })
	return logs
}

func TestWithContextAttachesFields(t *testing.T) {
	logs := swapGlobal(t)

	ctx := context.WithValue(context.Background(), DatasetKey, "data/raw/grades.csv")
	ctx = context.WithValue(ctx, OperationKey, "analyze")

	WithContext(ctx).Info("CSV loaded")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "data/raw/grades.csv", fields["dataset"])
	assert.Equal(t, "analyze", fields["operation"])
}

func TestWithContextEmptyContext(t *testing.T) {
	logs := swapGlobal(t)

	WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ContextMap())
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	require.Error(t, err)
}
