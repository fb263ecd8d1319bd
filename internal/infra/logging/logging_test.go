//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"sandbox-billing/internal/config"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"}, false)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1")
	With(ctx, base).Info().Msg("hello")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["trace_id"] != "trace-1" || line["user_id"] != "user-1" {
		t.Errorf("missing context fields: %v", line)
	}
}

func TestContextGetters(t *testing.T) {
	if TraceID(context.Background()) != "" || UserID(context.Background()) != "" {
		t.Fatal("expected empty ids on a bare context")
	}
	ctx := WithUserID(context.Background(), "u-9")
	if UserID(ctx) != "u-9" {
		t.Errorf("expected u-9, got %q", UserID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("jane@example.com"); got != "jane...om" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Redact("short"); got != "***" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Redact(""); got != "***" {
		t.Errorf("empty value must still be masked, got %q", got)
	}
}
