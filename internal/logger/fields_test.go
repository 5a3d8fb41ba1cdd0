package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  major  ", Value: "  business  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "major" || fields[0].String != "business" {
		t.Fatalf("unexpected major field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	enriched := WithFields(zap.New(core), zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestSessionFields(t *testing.T) {
	fields := SessionFields("abc", " computer_science ", "")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldSession || fields[0].String != "abc" {
		t.Fatalf("unexpected session field: %+v", fields[0])
	}
	if fields[1].Key != FieldMajor || fields[1].String != "computer_science" {
		t.Fatalf("unexpected major field: %+v", fields[1])
	}

	if empty := SessionFields("", "", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithSessionAndAI(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	enriched := WithAI(WithSession(zap.New(core), "s-1", "marketing", "市场专员"), "gemini", "model-x")
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	want := map[string]string{
		FieldSession:  "s-1",
		FieldMajor:    "marketing",
		FieldPosition: "市场专员",
		FieldProvider: "gemini",
		FieldModel:    "model-x",
	}
	for key, value := range want {
		if ctx[key] != value {
			t.Fatalf("expected %s to be %q, got %v", key, value, ctx[key])
		}
	}

	if WithSession(nil, "s-1", "", "") == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
}

func TestNewHonoursOptions(t *testing.T) {
	l, err := New(Options{JSON: true, Debug: true, OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}

	l, err = New(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected info level by default")
	}
}
