package questions

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/catalog"
)

// Filter narrows a question pool before selection. Implementations must not
// modify the slice they receive.
type Filter interface {
	Name() string
	Apply(pool []catalog.Question) ([]catalog.Question, Step)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Run applies the filters in order and returns the remaining questions.
func Run(logger *zap.Logger, steps []Filter, pool []catalog.Question) []catalog.Question {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		next, info := step.Apply(pool)
		if info.Dropped > 0 {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
		pool = next
	}

	return pool
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name()})
	}
	return statuses
}

type maxDurationFilter struct {
	limit int
}

// NewMaxDuration drops questions whose expected answer time exceeds limit
// seconds. A non-positive limit keeps every question.
func NewMaxDuration(limit int) Filter {
	return &maxDurationFilter{limit: limit}
}

func (f *maxDurationFilter) Name() string { return "max_duration" }

func (f *maxDurationFilter) Apply(pool []catalog.Question) ([]catalog.Question, Step) {
	initial := len(pool)
	if f.limit <= 0 {
		return pool, Step{Initial: initial, Left: initial}
	}

	kept := make([]catalog.Question, 0, len(pool))
	for _, q := range pool {
		if q.ExpectedDurationSeconds <= f.limit {
			kept = append(kept, q)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}

func (f *maxDurationFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Details: map[string]string{"limit_seconds": strconv.Itoa(f.limit)},
	}
}
