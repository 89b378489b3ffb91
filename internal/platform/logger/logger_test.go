package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestBodiesLoggedBySizeOnly(t *testing.T) {
	log, logs := observed()
	raw := strings.Repeat("x", 4096)
	log.Error("Model response malformed", "raw_response", raw, "extracted_text", "abc", "attempt", 2)

	fields := logs.All()[0].ContextMap()
	if fields["raw_response"] != "[4096 chars]" {
		t.Fatalf("raw_response = %v", fields["raw_response"])
	}
	if fields["extracted_text"] != "[3 chars]" {
		t.Fatalf("extracted_text = %v", fields["extracted_text"])
	}
	if fields["attempt"] != int64(2) {
		t.Fatalf("attempt = %v (%T)", fields["attempt"], fields["attempt"])
	}
}

func TestSecretsRedacted(t *testing.T) {
	log, logs := observed()
	log.With("api_key", "sk-123").Info("calling", "meta", map[string]interface{}{"authorization": "Bearer x", "model": "m"})

	fields := logs.All()[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" {
		t.Fatalf("api_key = %v", fields["api_key"])
	}
	meta, ok := fields["meta"].(map[string]interface{})
	if !ok || meta["authorization"] != "[REDACTED]" || meta["model"] != "m" {
		t.Fatalf("meta = %#v", fields["meta"])
	}
}

func TestIdentifiersNotRedacted(t *testing.T) {
	log, logs := observed()
	log.With("prompt_name", "concept_extraction").Info("calling")
	if got := logs.All()[0].ContextMap()["prompt_name"]; got != "concept_extraction" {
		t.Fatalf("prompt_name = %v", got)
	}
}
