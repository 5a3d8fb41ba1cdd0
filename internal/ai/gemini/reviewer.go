package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/interview-trainer/internal/ai"
	"github.com/spigell/interview-trainer/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction = "You review mock interview answers and reply with strict JSON."

	defaultMaxLogLength = 200
	maxAnswerRunes      = 4000
	maxTips             = 3
	unknownValue        = "none"
)

// Reviewer asks Gemini for a qualitative review of an answer.
type Reviewer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Reviewer = (*Reviewer)(nil)

func NewReviewer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Reviewer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reviewer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (r *Reviewer) Review(ctx context.Context, req ai.ReviewRequest) (*ai.Review, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return nil, errors.New("answer is required")
	}

	scores, err := json.MarshalIndent(map[string]int{
		"overall":    req.Evaluation.OverallScore,
		"content":    req.Evaluation.ContentScore,
		"speech":     req.Evaluation.SpeechScore,
		"confidence": req.Evaluation.ConfidenceScore,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}

	prompt := buildPrompt(req, string(scores))

	r.logger.Debug("gemini review request",
		zap.String("question", req.QuestionTitle),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("gemini review response",
		zap.String("question", req.QuestionTitle),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, r.maxLogLen)),
	)

	review, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	review.Raw = raw
	return review, nil
}

func buildPrompt(req ai.ReviewRequest, scoresJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Question:\n{{QUESTION}}\n\nAnswer:\n{{ANSWER}}\n\nScores:\n{{SCORES_JSON}}\n\nJSON Response:"
	}

	question := sanitizeLine(req.QuestionTitle)
	if content := sanitizeLine(req.QuestionContent); content != "" && content != question {
		question = strings.TrimSpace(question + "\n" + content)
	}

	answer := strings.TrimSpace(req.Answer)
	if runes := []rune(answer); len(runes) > maxAnswerRunes {
		answer = string(runes[:maxAnswerRunes])
	}

	replacer := strings.NewReplacer(
		"{{MAJOR}}", orNone(sanitizeLine(req.Major)),
		"{{POSITION}}", orNone(sanitizeLine(req.Position)),
		"{{QUESTION}}", orNone(question),
		"{{ANSWER}}", answer,
		"{{SCORES_JSON}}", scoresJSON,
	)
	return replacer.Replace(template)
}

// sanitizeLine collapses whitespace and neutralises square brackets so user
// input cannot open a new prompt section.
func sanitizeLine(s string) string {
	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func orNone(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}

func parseResponse(raw string) (*ai.Review, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	summary := coerceString(data["summary"])
	if summary == "" {
		return nil, errors.New("gemini response has no summary")
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.Review{
		Summary: summary,
		Tips:    coerceStrings(data["tips"]),
		Score:   math.Max(0, math.Min(100, score)),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceStrings(v any) []string {
	var items []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				items = append(items, s)
			}
		}
	case string:
		for _, line := range strings.Split(val, "\n") {
			if s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*")); s != "" {
				items = append(items, s)
			}
		}
	}
	if len(items) > maxTips {
		items = items[:maxTips]
	}
	return items
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
