// Package questions selects non-repeating interview questions from the
// catalog pools.
package questions

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/catalog"
)

// Rand is the source of randomness used to pick questions.
type Rand interface {
	Intn(n int) int
}

// Generator hands out questions for one interview session. It remembers the
// titles it already returned and avoids them until the pool is exhausted.
// A Generator is not safe for concurrent use.
type Generator struct {
	catalog *catalog.Catalog
	rnd     Rand
	filters []Filter
	logger  *zap.Logger

	used map[string]struct{}
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand replaces the default time-seeded random source.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rnd = r
		}
	}
}

// WithFilters narrows every pool with the given filters before selection.
func WithFilters(filters ...Filter) Option {
	return func(g *Generator) {
		g.filters = append(g.filters, filters...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Generator with an empty used-set.
func New(c *catalog.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: c,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  zap.NewNop(),
		used:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns up to count questions for major in random order. When
// fewer than count unused questions remain, the used-set is cleared and the
// whole pool becomes available again.
func (g *Generator) Generate(major string, count int) []catalog.Question {
	if count <= 0 {
		return []catalog.Question{}
	}

	pool := g.pool(major)

	available := make([]catalog.Question, 0, len(pool))
	for _, q := range pool {
		if _, used := g.used[q.Title]; !used {
			available = append(available, q)
		}
	}

	wrapped := false
	if len(available) < count {
		g.used = make(map[string]struct{})
		available = append(available[:0], pool...)
		wrapped = true
	}

	result := make([]catalog.Question, 0, min(count, len(available)))
	for len(result) < count && len(available) > 0 {
		i := g.rnd.Intn(len(available))
		q := available[i]
		available = append(available[:i], available[i+1:]...)

		result = append(result, q)
		g.used[q.Title] = struct{}{}
	}

	g.logger.Debug("questions generated",
		zap.String("major", major),
		zap.Int("requested", count),
		zap.Int("returned", len(result)),
		zap.Int("pool_size", len(pool)),
		zap.Bool("wrapped", wrapped),
	)

	return result
}

// GenerateQuestion returns a single question for the major, or for category
// when major is empty. The catalog fallback question is returned when the
// pool yields nothing.
func (g *Generator) GenerateQuestion(category, difficulty, major, position string) catalog.Question {
	key := major
	if strings.TrimSpace(key) == "" {
		key = category
	}

	if qs := g.Generate(key, 1); len(qs) > 0 {
		return qs[0]
	}

	return g.catalog.FallbackQuestion(category, difficulty, major, position)
}

// PoolSize reports how many questions are selectable for major after filters.
func (g *Generator) PoolSize(major string) int {
	return len(g.pool(major))
}

// Reset forgets every returned title.
func (g *Generator) Reset() {
	g.used = make(map[string]struct{})
}

// Used returns the titles returned since the last reset, sorted.
func (g *Generator) Used() []string {
	titles := make([]string, 0, len(g.used))
	for title := range g.used {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Restore marks titles as already used, e.g. when a stored session resumes.
func (g *Generator) Restore(titles []string) {
	for _, title := range titles {
		g.used[title] = struct{}{}
	}
}

func (g *Generator) pool(major string) []catalog.Question {
	var pool []catalog.Question

	key := catalog.NormalizeKey(major)
	if key == "" {
		key = string(catalog.CategoryGeneral)
	}

	if known, ok := g.catalog.Pool(key); ok {
		pool = known
	} else {
		pool = g.catalog.GenericPool(strings.TrimSpace(major))
	}

	if len(g.filters) == 0 {
		return pool
	}

	return Run(g.logger, g.filters, pool)
}
