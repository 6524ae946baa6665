package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("scenario_id", "abc")).Debug(context.Background(), "generated",
		Int("frames", 401),
		Float64("end_years", 2005000),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "generated" || rec["scenario_id"] != "abc" || rec["error"] != "boom" {
		t.Fatalf("log record = %v", rec)
	}
	if rec["frames"].(float64) != 401 {
		t.Fatalf("frames = %v, want 401", rec["frames"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	log.Warn(context.Background(), "shown")
	if buf.Len() == 0 {
		t.Fatalf("warn not logged")
	}
}

func TestRequestScopedLogger(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" || RequestIDFromContext(ctx) != id {
		t.Fatalf("EnsureRequestID did not store id")
	}
	ctx2, id2 := EnsureRequestID(ctx)
	if id2 != id || ctx2 != ctx {
		t.Fatalf("EnsureRequestID replaced existing id %q with %q", id, id2)
	}

	if got := FromContext(context.Background(), nil); got == nil {
		t.Fatalf("FromContext with nil fallback returned nil")
	}
	base := Noop()
	ctx = ContextWithLogger(ctx, base)
	if got := FromContext(ctx, nil); got != base {
		t.Fatalf("FromContext = %v, want stored logger", got)
	}
}
