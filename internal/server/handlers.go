package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/spigell/interview-trainer/internal/catalog"
	"github.com/spigell/interview-trainer/internal/evaluation"
	"github.com/spigell/interview-trainer/internal/interview"
)

const maxBodyBytes = 1 << 20

type createSessionRequest struct {
	Major    string `json:"major" validate:"max=64"`
	Position string `json:"position" validate:"max=128"`
	Count    int    `json:"count" validate:"gte=0,lte=20"`
}

type nextQuestionsRequest struct {
	Count int `json:"count" validate:"gte=0,lte=20"`
}

type questionRequest struct {
	SessionID  string `json:"session_id" validate:"omitempty,uuid"`
	Category   string `json:"category" validate:"max=64"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Major      string `json:"major" validate:"max=64"`
	Position   string `json:"position" validate:"max=128"`
}

type responseRequest struct {
	QuestionTitle           string `json:"question_title" validate:"max=256"`
	Answer                  string `json:"answer" validate:"max=20000"`
	DurationSeconds         int    `json:"duration_seconds" validate:"gte=0"`
	ExpectedDurationSeconds int    `json:"expected_duration_seconds" validate:"gte=0"`
	Major                   string `json:"major" validate:"max=64"`
	Position                string `json:"position" validate:"max=128"`
}

func (r responseRequest) input() evaluation.Input {
	return evaluation.Input{
		Answer:                  r.Answer,
		DurationSeconds:         r.DurationSeconds,
		ExpectedDurationSeconds: r.ExpectedDurationSeconds,
		Major:                   r.Major,
		Position:                r.Position,
	}
}

type questionsResponse struct {
	SessionID string             `json:"session_id"`
	Questions []catalog.Question `json:"questions"`
}

func (s *Server) handleMajors(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string][]string{"majors": s.service.Majors()})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	session, err := s.service.StartSession(r.Context(), req.Major, req.Position, req.Count)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	details, err := s.service.GetSession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, details)
}

func (s *Server) handleNextQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	var req nextQuestionsRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	qs, err := s.service.NextQuestions(r.Context(), id, req.Count)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, questionsResponse{SessionID: id, Questions: qs})
}

func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	var req responseRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.service.EvaluateResponse(r.Context(), interview.ResponseRequest{
		SessionID:     id,
		QuestionTitle: req.QuestionTitle,
		Input:         req.input(),
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	summary, err := s.service.CompleteSession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

func (s *Server) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	q, err := s.service.GenerateQuestion(r.Context(), interview.QuestionRequest{
		SessionID:  req.SessionID,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Major:      req.Major,
		Position:   req.Position,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, q)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := s.decode(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	result, err := s.service.EvaluateResponse(r.Context(), interview.ResponseRequest{
		QuestionTitle: req.QuestionTitle,
		Input:         req.input(),
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// decode reads an optional JSON body into dst and validates it. An empty
// body leaves dst at its zero value.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)
	}
	return s.validate.Struct(dst)
}

func sessionID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid session id %q", ErrBadRequest, id)
	}
	return id, nil
}
