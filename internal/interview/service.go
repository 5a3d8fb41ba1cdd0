// Package interview runs practice interview sessions: it hands out questions
// from per-session generators, evaluates answers and persists the results.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/ai"
	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/evaluation"
	"github.com/spigell/interview-trainer/internal/logger"
	"github.com/spigell/interview-trainer/internal/metrics"
	"github.com/spigell/interview-trainer/internal/questions"
	"github.com/spigell/interview-trainer/internal/storage"
	"github.com/spigell/interview-trainer/internal/utils"
)

const (
	DefaultCount = 5
	MaxCount     = 20

	defaultMaxLogLength = 80
)

var ErrInvalidRequest = errors.New("invalid request")

// Service is safe for concurrent use. Each session owns a generator guarded
// by its own mutex.
type Service struct {
	catalog   *catalog.Catalog
	evaluator *evaluation.Evaluator
	store     storage.Store
	reviewer  ai.Reviewer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	genOpts   []questions.Option
	maxLogLen int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionGenerator
}

type sessionGenerator struct {
	mu  sync.Mutex
	gen *questions.Generator
}

type Option func(*Service)

func WithStore(store storage.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithReviewer enables the optional AI review of every evaluated answer.
func WithReviewer(r ai.Reviewer) Option {
	return func(s *Service) { s.reviewer = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithEvaluator(e *evaluation.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithGeneratorOptions is applied to every session generator.
func WithGeneratorOptions(opts ...questions.Option) Option {
	return func(s *Service) { s.genOpts = append(s.genOpts, opts...) }
}

func WithMaxLogLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLogLen = n
		}
	}
}

func NewService(c *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog:   c,
		store:     storage.NewMemory(),
		logger:    zap.NewNop(),
		maxLogLen: defaultMaxLogLength,
		now:       func() time.Time { return time.Now().UTC() },
		sessions:  make(map[string]*sessionGenerator),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = evaluation.New(c)
	}
	return s
}

// Majors lists the majors with a dedicated question pool.
func (s *Service) Majors() []string {
	return s.catalog.Majors()
}

// StartSession creates a session with a fresh generator and its first count
// questions.
func (s *Service) StartSession(ctx context.Context, major, position string, count int) (*storage.Session, error) {
	count, err := normalizeCount(count)
	if err != nil {
		return nil, err
	}

	session := storage.NewSession(major, position)
	session.CreatedAt = s.now()

	sg := &sessionGenerator{gen: s.newGenerator(session)}
	sg.mu.Lock()
	qs := sg.gen.Generate(session.Major, count)
	session.Questions = append(session.Questions, qs...)
	session.UsedTitles = sg.gen.Used()
	sg.mu.Unlock()

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.ID] = sg
	s.mu.Unlock()

	s.metrics.SessionStarted(catalog.NormalizeKey(session.Major))
	s.recordServed(qs)

	logger.WithSession(s.logger, session.ID, session.Major, session.Position).Info("session started",
		zap.Int("questions", len(qs)),
	)

	return session, nil
}

// NextQuestions hands out count more questions that were not asked in the
// session yet, wrapping around when the pool is exhausted.
func (s *Service) NextQuestions(ctx context.Context, sessionID string, count int) ([]catalog.Question, error) {
	count, err := normalizeCount(count)
	if err != nil {
		return nil, err
	}

	var qs []catalog.Question
	err = s.withSession(ctx, sessionID, func(session *storage.Session, gen *questions.Generator) {
		qs = gen.Generate(session.Major, count)
		session.Questions = append(session.Questions, qs...)
	})
	if err != nil {
		return nil, err
	}

	s.recordServed(qs)
	return qs, nil
}

// QuestionRequest selects a single question. Major and Position default to
// the session's when SessionID is set.
type QuestionRequest struct {
	SessionID  string
	Category   string
	Difficulty string
	Major      string
	Position   string
}

// GenerateQuestion returns one question, or the templated fallback question
// when the pool yields none. Without a session a throwaway generator is used.
func (s *Service) GenerateQuestion(ctx context.Context, req QuestionRequest) (catalog.Question, error) {
	if req.SessionID == "" {
		gen := questions.New(s.catalog, s.generatorOptions(s.logger)...)
		q := gen.GenerateQuestion(req.Category, req.Difficulty, req.Major, req.Position)
		s.recordServed([]catalog.Question{q})
		return q, nil
	}

	var q catalog.Question
	err := s.withSession(ctx, req.SessionID, func(session *storage.Session, gen *questions.Generator) {
		major := firstNonEmpty(req.Major, session.Major)
		position := firstNonEmpty(req.Position, session.Position)
		q = gen.GenerateQuestion(req.Category, req.Difficulty, major, position)
		session.Questions = append(session.Questions, q)
	})
	if err != nil {
		return catalog.Question{}, err
	}

	s.recordServed([]catalog.Question{q})
	return q, nil
}

// ResponseRequest is an answer submitted for evaluation. SessionID is
// optional; when set the response is stored with the session.
type ResponseRequest struct {
	SessionID     string
	QuestionTitle string
	evaluation.Input
}

// Result is the evaluation of one answer with the optional AI review.
type Result struct {
	ResponseID string                `json:"response_id,omitempty"`
	Evaluation evaluation.Evaluation `json:"evaluation"`
	Review     *ai.Review            `json:"review,omitempty"`
}

// EvaluateResponse scores the answer. The heuristic evaluation never fails;
// errors only come from looking up or saving the session. A failing AI review
// is logged and left out of the result.
func (s *Service) EvaluateResponse(ctx context.Context, req ResponseRequest) (*Result, error) {
	var (
		session  *storage.Session
		question catalog.Question
	)
	if req.SessionID != "" {
		var err error
		if session, err = s.store.GetSession(ctx, req.SessionID); err != nil {
			return nil, err
		}
		req.Major = firstNonEmpty(req.Major, session.Major)
		req.Position = firstNonEmpty(req.Position, session.Position)
		question = findQuestion(session.Questions, req.QuestionTitle)
		if req.ExpectedDurationSeconds <= 0 {
			req.ExpectedDurationSeconds = question.ExpectedDurationSeconds
		}
	}
	if question.Title == "" {
		question.Title = req.QuestionTitle
	}

	ev := s.evaluator.Evaluate(req.Input)
	s.metrics.Evaluated(ev.Breakdown.Degenerate, map[string]int{
		"overall":       ev.OverallScore,
		"speech":        ev.SpeechScore,
		"content":       ev.ContentScore,
		"confidence":    ev.ConfidenceScore,
		"body_language": ev.BodyLanguageScore,
	})

	log := logger.WithSession(s.logger, req.SessionID, req.Major, req.Position)
	log.Info("answer evaluated",
		zap.String("question", req.QuestionTitle),
		zap.Int("overall_score", ev.OverallScore),
		zap.Bool("degenerate", ev.Breakdown.Degenerate),
		zap.String("answer_preview", utils.TruncateForLog(req.Answer, s.maxLogLen)),
	)

	result := &Result{Evaluation: ev}
	result.Review = s.review(ctx, log, question, req, ev)

	if session != nil {
		resp := storage.NewResponse(session.ID)
		resp.CreatedAt = s.now()
		resp.QuestionTitle = req.QuestionTitle
		resp.Answer = req.Answer
		resp.DurationSeconds = req.DurationSeconds
		resp.ExpectedDurationSeconds = req.ExpectedDurationSeconds
		resp.Evaluation = ev
		resp.Review = result.Review
		if err := s.store.AddResponse(ctx, resp); err != nil {
			return nil, fmt.Errorf("saving response: %w", err)
		}
		result.ResponseID = resp.ID
	}

	return result, nil
}

func (s *Service) review(ctx context.Context, log *zap.Logger, q catalog.Question, req ResponseRequest, ev evaluation.Evaluation) *ai.Review {
	if s.reviewer == nil {
		s.metrics.AIReview(metrics.ReviewDisabled)
		return nil
	}
	if ev.Breakdown.Degenerate {
		return nil
	}

	review, err := s.reviewer.Review(ctx, ai.ReviewRequest{
		QuestionTitle:   q.Title,
		QuestionContent: q.Content,
		Answer:          req.Answer,
		Major:           req.Major,
		Position:        req.Position,
		Evaluation:      ev,
	})
	if err != nil {
		s.metrics.AIReview(metrics.ReviewError)
		log.Warn("ai review failed", zap.Error(err))
		return nil
	}

	s.metrics.AIReview(metrics.ReviewSuccess)
	return review
}

// Details is a stored session with its responses.
type Details struct {
	Session   storage.Session    `json:"session"`
	Responses []storage.Response `json:"responses"`
}

func (s *Service) GetSession(ctx context.Context, id string) (*Details, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Details{Session: *session, Responses: responses}, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]storage.Session, error) {
	return s.store.ListSessions(ctx)
}

// CompleteSession marks the session as finished, releases its generator and
// returns the score averages over its responses.
func (s *Service) CompleteSession(ctx context.Context, id string) (*Summary, error) {
	details, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	details.Session.Complete(s.now())
	if err := s.store.SaveSession(ctx, &details.Session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	summary := Summarize(details.Responses)
	summary.Session = details.Session

	logger.WithSession(s.logger, id, details.Session.Major, details.Session.Position).Info("session completed",
		zap.Int("responses", summary.Responses),
		zap.Float64("average_overall", summary.Averages.Overall),
	)

	return summary, nil
}

// withSession runs fn with the session's generator locked and saves the
// session afterwards. Generators of sessions started by another process are
// rebuilt from the stored used titles.
func (s *Service) withSession(ctx context.Context, id string, fn func(*storage.Session, *questions.Generator)) error {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	sg, ok := s.sessions[id]
	if !ok {
		sg = &sessionGenerator{gen: s.newGenerator(session)}
		sg.gen.Restore(session.UsedTitles)
		s.sessions[id] = sg
	}
	s.mu.Unlock()

	sg.mu.Lock()
	defer sg.mu.Unlock()

	// Reload under the generator lock so concurrent requests see each
	// other's questions.
	if session, err = s.store.GetSession(ctx, id); err != nil {
		return err
	}
	if session.CompletedAt != nil {
		return fmt.Errorf("%w: session %s is completed", ErrInvalidRequest, id)
	}

	fn(session, sg.gen)
	session.UsedTitles = sg.gen.Used()

	if err := s.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *Service) newGenerator(session *storage.Session) *questions.Generator {
	log := logger.WithSession(s.logger, session.ID, session.Major, session.Position)
	return questions.New(s.catalog, s.generatorOptions(log)...)
}

func (s *Service) generatorOptions(log *zap.Logger) []questions.Option {
	return append([]questions.Option{questions.WithLogger(log)}, s.genOpts...)
}

func (s *Service) recordServed(qs []catalog.Question) {
	for _, q := range qs {
		s.metrics.QuestionServed(string(q.Category))
	}
}

func normalizeCount(count int) (int, error) {
	if count == 0 {
		return DefaultCount, nil
	}
	if count < 0 || count > MaxCount {
		return 0, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, MaxCount)
	}
	return count, nil
}

func findQuestion(qs []catalog.Question, title string) catalog.Question {
	title = strings.TrimSpace(title)
	for _, q := range qs {
		if q.Title == title {
			return q
		}
	}
	return catalog.Question{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
