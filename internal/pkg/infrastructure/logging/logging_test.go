package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/matryer/is"
	"go.opentelemetry.io/otel/trace"
)

func TestLoggerIsStoredInContext(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}

	ctx, _ := NewLoggerWithWriter(context.Background(), buf, "IoT-Room-Monitor", "abc123")

	logger := GetLoggerFromContext(ctx)
	logger.Info().Msg("hello")

	entry := map[string]any{}
	is.NoErr(json.Unmarshal(buf.Bytes(), &entry))
	is.Equal(entry["service"], "iot-room-monitor")
	is.Equal(entry["version"], "abc123")
	is.Equal(entry["message"], "hello")
}

func TestTraceIDIsOnlyAddedForValidSpans(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}

	ctx, logger := NewLoggerWithWriter(context.Background(), buf, "svc", "v")
	span := trace.SpanFromContext(ctx)

	traceID, _, _ := AddTraceIDToLoggerAndStoreInContext(span, logger, ctx)
	is.Equal(traceID, "")
}
