package questions

import (
	"math/rand"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-trainer/internal/catalog"
)

type firstPick struct{ calls int }

func (f *firstPick) Intn(int) int {
	f.calls++
	return 0
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("loading default catalog: %v", err)
	}
	return c
}

func titles(qs []catalog.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Title)
	}
	return out
}

func TestGenerateLengthFromFreshGenerator(t *testing.T) {
	c := mustCatalog(t)
	majors := append(c.Majors(), "nonexistent_major_xyz", "")

	for _, major := range majors {
		for count := 0; count <= 8; count++ {
			g := New(c, WithRand(rand.New(rand.NewSource(int64(count)))))
			got := g.Generate(major, count)
			want := min(count, g.PoolSize(major))
			if len(got) != want {
				t.Fatalf("major %q count %d: expected %d questions, got %d", major, count, want, len(got))
			}
		}
	}
}

func TestGenerateReturnsDistinctTitles(t *testing.T) {
	c := mustCatalog(t)
	g := New(c, WithRand(rand.New(rand.NewSource(42))))

	qs := g.Generate("computer_science", 6)
	seen := map[string]struct{}{}
	for _, title := range titles(qs) {
		if _, dup := seen[title]; dup {
			t.Fatalf("duplicate title %q in %v", title, titles(qs))
		}
		seen[title] = struct{}{}
	}
}

func TestGenerateAvoidsUsedTitlesUntilWraparound(t *testing.T) {
	c := mustCatalog(t)
	g := New(c, WithRand(rand.New(rand.NewSource(7))))

	poolSize := g.PoolSize("general")
	if poolSize != 6 {
		t.Fatalf("test assumes a general pool of 6, got %d", poolSize)
	}

	seen := map[string]struct{}{}
	for i := 0; i < 3; i++ {
		for _, title := range titles(g.Generate("general", 2)) {
			if _, dup := seen[title]; dup {
				t.Fatalf("title %q returned twice before the pool was exhausted", title)
			}
			seen[title] = struct{}{}
		}
	}

	if len(g.Used()) != poolSize {
		t.Fatalf("expected every title to be used, got %v", g.Used())
	}

	next := g.Generate("general", 2)
	if len(next) != 2 {
		t.Fatalf("expected wraparound to refill the pool, got %d questions", len(next))
	}
	if len(g.Used()) != 2 {
		t.Fatalf("expected used-set to restart after wraparound, got %v", g.Used())
	}
}

func TestGenerateWraparoundUsesWholePool(t *testing.T) {
	c := mustCatalog(t)
	g := New(c, WithRand(&firstPick{}))

	first := g.Generate("general", 4)
	second := g.Generate("general", 4)

	if len(second) != 4 {
		t.Fatalf("expected 4 questions after wraparound, got %d", len(second))
	}

	// firstPick always takes index 0, so a refilled pool starts over in pool order.
	pool, _ := c.Pool("general")
	if second[0].Title != pool[0].Title || first[0].Title != pool[0].Title {
		t.Fatalf("expected refilled pool to include already used titles, got %v then %v", titles(first), titles(second))
	}
}

func TestGenerateUnknownMajorSynthesizesPool(t *testing.T) {
	c := mustCatalog(t)
	g := New(c)

	qs := g.Generate("nonexistent_major_xyz", 3)
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if !strings.Contains(q.Title, "nonexistent_major_xyz") && !strings.Contains(q.Content, "nonexistent_major_xyz") {
			t.Fatalf("expected major to be substituted, got %+v", q)
		}
	}

	empty := g.Generate("nonexistent_major_xyz", 0)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}
}

func TestResetAndRestore(t *testing.T) {
	c := mustCatalog(t)
	g := New(c)

	g.Generate("business", 3)
	if len(g.Used()) != 3 {
		t.Fatalf("expected 3 used titles, got %d", len(g.Used()))
	}

	g.Reset()
	if len(g.Used()) != 0 {
		t.Fatalf("expected reset to clear the used-set")
	}

	pool, _ := c.Pool("business")
	restored := titles(pool[:len(pool)-1])
	g.Restore(restored)

	qs := g.Generate("business", 1)
	if len(qs) != 1 || qs[0].Title != pool[len(pool)-1].Title {
		t.Fatalf("expected the only unused title, got %v", titles(qs))
	}
}

func TestGenerateQuestion(t *testing.T) {
	c := mustCatalog(t)

	g := New(c, WithRand(&firstPick{}))
	q := g.GenerateQuestion("general", "easy", "marketing", "")
	if q.Category != catalog.CategoryMarketing {
		t.Fatalf("expected major to take precedence over category, got %q", q.Category)
	}

	q = g.GenerateQuestion("education", "", "", "")
	if q.Category != catalog.CategoryEducation {
		t.Fatalf("expected category pool when major is empty, got %q", q.Category)
	}

	starved := New(c, WithFilters(NewMaxDuration(1)))
	q = starved.GenerateQuestion("business", "hard", "", "分析师")
	if !strings.Contains(q.Content, "分析师") || q.Difficulty != catalog.DifficultyHard {
		t.Fatalf("expected fallback question, got %+v", q)
	}
}

func TestGenerateLogsSelection(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	g := New(mustCatalog(t), WithLogger(zap.New(core)))

	g.Generate("engineering", 2)

	entries := observed.FilterMessage("questions generated").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["major"] != "engineering" {
		t.Fatalf("unexpected major field: %v", ctx["major"])
	}
	if ctx["returned"] != int64(2) {
		t.Fatalf("unexpected returned field: %v", ctx["returned"])
	}
}
