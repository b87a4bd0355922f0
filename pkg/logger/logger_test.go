package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := Logger
	Logger = zerolog.New(&buf)
	t.Cleanup(func() { Logger = previous })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return fields
}

func TestCommandTagsUseCaseAndTrace(t *testing.T) {
	buf := capture(t)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:  trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	Command(ctx, "RawQC").Warn().Msg("Command rejected")

	fields := decodeLine(t, buf)
	tests := []struct {
		key  string
		want string
	}{
		{"command", "RawQC"},
		{"trace_id", sc.TraceID().String()},
		{"span_id", sc.SpanID().String()},
		{"level", "warn"},
	}
	for _, tt := range tests {
		if got := fields[tt.key]; got != tt.want {
			t.Errorf("%s = %v, want %s", tt.key, got, tt.want)
		}
	}
}

func TestCommandWithoutSpan(t *testing.T) {
	buf := capture(t)

	Command(context.Background(), "Login").Info().Msg("ok")

	fields := decodeLine(t, buf)
	if fields["command"] != "Login" {
		t.Errorf("command = %v, want Login", fields["command"])
	}
	if _, ok := fields["trace_id"]; ok {
		t.Errorf("trace_id set without a span: %v", fields)
	}
}
