package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/interview-trainer/internal/catalog"
)

func TestMaxDurationFilter(t *testing.T) {
	t.Parallel()

	pool := []catalog.Question{
		{Title: "short", ExpectedDurationSeconds: 60},
		{Title: "long", ExpectedDurationSeconds: 240},
	}

	tests := []struct {
		name  string
		limit int
		left  []string
	}{
		{name: "disabled", limit: 0, left: []string{"short", "long"}},
		{name: "drops long", limit: 120, left: []string{"short"}},
		{name: "drops all", limit: 10, left: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, step := NewMaxDuration(tt.limit).Apply(pool)
			if len(got) != len(tt.left) {
				t.Fatalf("expected %v, got %v", tt.left, titles(got))
			}
			for i, title := range tt.left {
				if got[i].Title != title {
					t.Fatalf("expected %v, got %v", tt.left, titles(got))
				}
			}
			if step.Initial != 2 || step.Left != len(tt.left) || step.Dropped != 2-len(tt.left) {
				t.Fatalf("unexpected step: %+v", step)
			}
		})
	}

	if len(pool) != 2 || pool[1].Title != "long" {
		t.Fatalf("filter must not modify its input")
	}
}

func TestExcludeFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	excluded, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(excluded.Items) != 0 {
		t.Fatalf("expected empty list, got %+v", excluded.Items)
	}

	excluded.Append("asked too often", "自我介绍", "  ", "自我介绍", "职业规划")
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	reloaded, err := GetExcludedFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := reloaded.Titles()
	if len(got) != 2 || got[0] != "自我介绍" || got[1] != "职业规划" {
		t.Fatalf("unexpected titles: %v", got)
	}
	if reloaded.Items[0].Reason != "asked too often" {
		t.Fatalf("unexpected reason: %q", reloaded.Items[0].Reason)
	}
}

func TestExcludeFileAcceptsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.yaml")
	doc := "items:\n  - title: 团队合作\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	filter, err := NewExcludeFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := mustCatalog(t)
	g := New(c, WithFilters(filter))

	pool, _ := c.Pool("general")
	if g.PoolSize("general") != len(pool)-1 {
		t.Fatalf("expected one excluded question, pool size %d", g.PoolSize("general"))
	}
	for _, q := range g.Generate("general", len(pool)) {
		if q.Title == "团队合作" {
			t.Fatalf("excluded question was returned")
		}
	}

	statuses := Describe([]Filter{filter, NewMaxDuration(90)})
	if statuses[0].Details["path"] != path {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
	if statuses[1].Details["limit_seconds"] != "90" {
		t.Fatalf("unexpected status: %+v", statuses[1])
	}
}

func TestExcludeFileInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte("items: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewExcludeFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
