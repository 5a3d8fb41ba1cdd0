package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/questions"
)

func TestWriteQuestions(t *testing.T) {
	qs := []catalog.Question{
		{Title: "自我介绍", Content: "请简单介绍一下你自己。", ExpectedDurationSeconds: 120},
	}

	var text bytes.Buffer
	if err := writeQuestions(&text, formatText, qs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text.String(), "1. 自我介绍 (120s)") {
		t.Fatalf("unexpected text output: %q", text.String())
	}

	var js bytes.Buffer
	if err := writeQuestions(&js, formatJSON, qs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded []catalog.Question
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Title != "自我介绍" {
		t.Fatalf("unexpected json output: %+v", decoded)
	}

	if err := writeQuestions(&js, "xml", qs); err == nil {
		t.Fatalf("expected an error for unknown format")
	}
}

func TestPrepareFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte(`{"items":[{"title":"自我介绍"}]}`), 0o600); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	steps, err := prepareFilters(&Config{ExcludeFile: path, MaxQuestionDuration: 150}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(steps))
	}

	pool := []catalog.Question{
		{Title: "自我介绍", ExpectedDurationSeconds: 60},
		{Title: "职业规划", ExpectedDurationSeconds: 240},
		{Title: "团队合作", ExpectedDurationSeconds: 120},
	}
	left := questions.Run(zap.NewNop(), steps, pool)
	if len(left) != 1 || left[0].Title != "团队合作" {
		t.Fatalf("unexpected filtered pool: %+v", left)
	}

	none, err := prepareFilters(&Config{}, zap.NewNop())
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no filters, got %d (%v)", len(none), err)
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := loadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Majors()) == 0 {
		t.Fatalf("expected the default catalog to have majors")
	}

	if _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing catalog file")
	}
}

func TestGetConfigValidates(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("default-count", 5)
	viper.Set("storage.driver", "file")
	viper.Set("storage.dir", t.TempDir())
	viper.Set("server.read-timeout", "5s")

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.DefaultCount != 5 || config.Storage.Driver != "file" {
		t.Fatalf("unexpected config: %+v", config)
	}
	if config.Server.ReadTimeout.Seconds() != 5 {
		t.Fatalf("expected read timeout to be decoded, got %v", config.Server.ReadTimeout)
	}

	viper.Set("storage.driver", "sqlite")
	if _, err := getConfig(); err == nil {
		t.Fatalf("expected an unsupported storage driver to fail validation")
	}

	viper.Set("storage.driver", "memory")
	viper.Set("default-count", 50)
	if _, err := getConfig(); err == nil {
		t.Fatalf("expected default-count above the limit to fail validation")
	}
}
