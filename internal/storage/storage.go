// Package storage persists interview sessions and the evaluated responses
// given in them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/interview-trainer/internal/ai"
	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/evaluation"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

// Session is one practice interview.
type Session struct {
	ID          string             `json:"id"`
	Major       string             `json:"major"`
	Position    string             `json:"position,omitempty"`
	Questions   []catalog.Question `json:"questions"`
	UsedTitles  []string           `json:"used_titles"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Response is one evaluated answer within a session.
type Response struct {
	ID                      string                `json:"id"`
	SessionID               string                `json:"session_id"`
	QuestionTitle           string                `json:"question_title"`
	Answer                  string                `json:"answer"`
	DurationSeconds         int                   `json:"duration_seconds"`
	ExpectedDurationSeconds int                   `json:"expected_duration_seconds"`
	Evaluation              evaluation.Evaluation `json:"evaluation"`
	Review                  *ai.Review            `json:"review,omitempty"`
	CreatedAt               time.Time             `json:"created_at"`
}

// Store is implemented by every backend. Lookups of unknown sessions fail with
// ErrNotFound. ListSessions returns the newest session first.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	AddResponse(ctx context.Context, r *Response) error
	ListResponses(ctx context.Context, sessionID string) ([]Response, error)
	Close() error
}

// NewSession creates a session with a fresh id.
func NewSession(major, position string) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Major:      strings.TrimSpace(major),
		Position:   strings.TrimSpace(position),
		Questions:  []catalog.Question{},
		UsedTitles: []string{},
		CreatedAt:  time.Now().UTC(),
	}
}

// NewResponse creates a response with a fresh id for sessionID.
func NewResponse(sessionID string) *Response {
	return &Response{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}
}

// Complete marks the session as finished.
func (s *Session) Complete(at time.Time) {
	at = at.UTC()
	s.CompletedAt = &at
}

func validateSession(s *Session) error {
	if s == nil {
		return errors.New("session is required")
	}
	return validateID(s.ID)
}

func validateResponse(r *Response) error {
	if r == nil {
		return errors.New("response is required")
	}
	if err := validateID(r.ID); err != nil {
		return err
	}
	return validateID(r.SessionID)
}

// validateID rejects ids that are not UUIDs. Ids end up in file names and
// redis keys.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func sortNewestFirst(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

func cloneSession(s *Session) *Session {
	out := *s
	out.Questions = append([]catalog.Question{}, s.Questions...)
	out.UsedTitles = append([]string{}, s.UsedTitles...)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}
