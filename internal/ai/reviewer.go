// Package ai defines the optional language-model review that complements the
// heuristic evaluation of an answer.
package ai

import (
	"context"

	"github.com/spigell/interview-trainer/internal/evaluation"
)

// ReviewRequest carries everything a reviewer needs to comment on an answer.
type ReviewRequest struct {
	QuestionTitle   string
	QuestionContent string
	Answer          string
	Major           string
	Position        string
	Evaluation      evaluation.Evaluation
}

// Review is the reviewer's free-form commentary.
type Review struct {
	Summary string   `json:"summary"`
	Tips    []string `json:"tips,omitempty"`
	// Score is the reviewer's own 0-100 estimate. It never replaces the
	// heuristic scores.
	Score float64 `json:"score,omitempty"`
	Raw   string  `json:"-"`
}

type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (*Review, error)
}
