// Package evaluation scores a free-text interview answer with fixed keyword
// dictionaries and patterns and renders the accompanying feedback.
package evaluation

import (
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/interview-trainer/internal/catalog"
)

const (
	// Answers shorter than this, after trimming, get the fixed low-score result.
	minAnswerRunes = 10

	minScore = 10
	maxScore = 100

	bodyLanguageBase   = 70
	bodyLanguageSpread = 20

	weightContent  = 0.35
	weightFluency  = 0.25
	weightDepth    = 0.20
	weightAttitude = 0.15
	weightTiming   = 0.05
)

// Rand is the source of the body-language placeholder score.
type Rand interface {
	Intn(n int) int
}

// Input is a single submitted answer.
type Input struct {
	Answer                  string `json:"answer"`
	DurationSeconds         int    `json:"duration_seconds"`
	ExpectedDurationSeconds int    `json:"expected_duration_seconds"`
	Major                   string `json:"major,omitempty"`
	Position                string `json:"position,omitempty"`
}

// Evaluation is the scored result for one answer.
type Evaluation struct {
	OverallScore        int       `json:"overall_score"`
	SpeechScore         int       `json:"speech_score"`
	ContentScore        int       `json:"content_score"`
	ConfidenceScore     int       `json:"confidence_score"`
	BodyLanguageScore   int       `json:"body_language_score"`
	Strengths           []string  `json:"strengths"`
	Improvements        []string  `json:"improvements"`
	DetailedFeedback    string    `json:"detailed_feedback"`
	NextRecommendations []string  `json:"next_recommendations"`
	Breakdown           Breakdown `json:"breakdown"`
}

// Breakdown exposes the intermediate sub-scores behind an Evaluation.
type Breakdown struct {
	Content    int  `json:"content"`
	Fluency    int  `json:"fluency"`
	Depth      int  `json:"depth"`
	Attitude   int  `json:"attitude"`
	Timing     int  `json:"timing"`
	Degenerate bool `json:"degenerate,omitempty"`
}

// Evaluator scores answers against a catalog. It is safe for concurrent use
// as long as the Rand it was given is.
type Evaluator struct {
	catalog *catalog.Catalog
	rnd     Rand
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRand replaces the default time-seeded random source.
func WithRand(r Rand) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.rnd = r
		}
	}
}

// New creates an Evaluator.
func New(c *catalog.Catalog, opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: c,
		rnd:     &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores a single answer. It never fails: degenerate input yields a
// fixed low-score evaluation.
func (e *Evaluator) Evaluate(in Input) Evaluation {
	answer := strings.TrimSpace(in.Answer)
	if utf8.RuneCountInString(answer) < minAnswerRunes {
		return degenerateEvaluation()
	}

	content := e.contentScore(answer, in.Major)
	fluency := e.fluencyScore(answer)
	depth := e.depthScore(answer)
	attitude := e.attitudeScore(answer)
	timing := timingScore(in.DurationSeconds, in.ExpectedDurationSeconds)

	confidence := roundHalfUp(float64(attitude+depth) / 2)
	overall := roundHalfUp(
		weightContent*float64(content) +
			weightFluency*float64(fluency) +
			weightDepth*float64(depth) +
			weightAttitude*float64(attitude) +
			weightTiming*float64(timing),
	)

	ev := Evaluation{
		OverallScore:      clamp(overall, minScore, maxScore),
		SpeechScore:       clamp(timing, minScore, maxScore),
		ContentScore:      clamp(content, minScore, maxScore),
		ConfidenceScore:   clamp(confidence, minScore, maxScore),
		BodyLanguageScore: bodyLanguageBase + e.rnd.Intn(bodyLanguageSpread),
		Breakdown: Breakdown{
			Content:  content,
			Fluency:  fluency,
			Depth:    depth,
			Attitude: attitude,
			Timing:   timing,
		},
	}

	scores := dimensionScores{
		content:    ev.ContentScore,
		fluency:    fluency,
		confidence: ev.ConfidenceScore,
		depth:      depth,
		attitude:   attitude,
	}

	ev.Strengths = strengths(scores)
	ev.Improvements = improvements(scores, in.Major)
	ev.DetailedFeedback = detailedFeedback(scores, in.Major)
	ev.NextRecommendations = recommendations()

	return ev
}

func degenerateEvaluation() Evaluation {
	return Evaluation{
		OverallScore:        15,
		SpeechScore:         20,
		ContentScore:        10,
		ConfidenceScore:     15,
		BodyLanguageScore:   60,
		Strengths:           append([]string(nil), degenerateStrengths...),
		Improvements:        append([]string(nil), degenerateImprovements...),
		DetailedFeedback:    degenerateFeedback,
		NextRecommendations: append([]string(nil), degenerateRecommendations...),
		Breakdown:           Breakdown{Degenerate: true},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
