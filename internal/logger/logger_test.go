package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func capture(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Use(zap.New(core))
	t.Cleanup(func() { Use(zap.NewNop()) })
	return logs
}

func TestInfoCarriesFields(t *testing.T) {
	logs := capture(t, zapcore.InfoLevel)

	Info(context.Background(), "News loaded", "records", 3, "source", "news.csv")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "News loaded", entry.Message)
	fields := entry.ContextMap()
	assert.EqualValues(t, 3, fields["records"])
	assert.Equal(t, "news.csv", fields["source"])
}

func TestDebugFilteredByLevel(t *testing.T) {
	logs := capture(t, zapcore.InfoLevel)

	Debug(context.Background(), "hidden")
	Warn(context.Background(), "shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestErrorWithErrAddsErrorField(t *testing.T) {
	logs := capture(t, zapcore.DebugLevel)

	ErrorWithErrSkip(context.Background(), 1, "Scoring failed", errors.New("boom"), "ticker", "AAPL")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "AAPL", fields["ticker"])
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("nonsense"))
}

func TestOperationTimerLogsCompletion(t *testing.T) {
	logs := capture(t, zapcore.DebugLevel)

	op := StartOperation(context.Background(), "pipeline.align", "scored", 4)
	require.NotNil(t, op.GetContext())
	op.End("events", 3)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Operation started", logs.All()[0].Message)
	assert.Equal(t, "pipeline.align", logs.All()[0].ContextMap()["operation"])

	done := logs.All()[1]
	assert.Equal(t, "Operation completed", done.Message)
	fields := done.ContextMap()
	assert.Equal(t, "pipeline.align", fields["operation"])
	assert.EqualValues(t, 4, fields["scored"])
	assert.EqualValues(t, 3, fields["events"])
	assert.Contains(t, fields, "duration_ms")
}

func TestOperationTimerLogsFailure(t *testing.T) {
	logs := capture(t, zapcore.DebugLevel)

	op := StartOperation(context.Background(), "pipeline.load")
	op.EndWithError(errors.New("missing column"))

	failed := logs.FilterMessage("Operation failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "missing column", failed[0].ContextMap()["error"])
	assert.Equal(t, "pipeline.load", failed[0].ContextMap()["operation"])
}

func TestToAttributesSkipsUnsupportedPairs(t *testing.T) {
	attrs := toAttributes([]any{"ticker", "AAPL", "events", 3, 42, "ignored", "lag", int64(1), "dangling"})

	require.Len(t, attrs, 3)
	assert.Equal(t, "ticker", string(attrs[0].Key))
	assert.Equal(t, "AAPL", attrs[0].Value.AsString())
	assert.Equal(t, int64(3), attrs[1].Value.AsInt64())
	assert.Equal(t, int64(1), attrs[2].Value.AsInt64())
}
