package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

const schema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	id           TEXT PRIMARY KEY,
	major        TEXT NOT NULL,
	position     TEXT NOT NULL DEFAULT '',
	questions    JSONB NOT NULL,
	used_titles  JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS responses (
	id                        TEXT PRIMARY KEY,
	session_id                TEXT NOT NULL REFERENCES interview_sessions(id) ON DELETE CASCADE,
	question_title            TEXT NOT NULL,
	answer                    TEXT NOT NULL,
	duration_seconds          INTEGER NOT NULL,
	expected_duration_seconds INTEGER NOT NULL,
	evaluation                JSONB NOT NULL,
	review                    JSONB,
	created_at                TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS responses_session_id_idx ON responses (session_id, created_at);
`

const (
	upsertSessionQuery = `INSERT INTO interview_sessions (id, major, position, questions, used_titles, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	major = EXCLUDED.major,
	position = EXCLUDED.position,
	questions = EXCLUDED.questions,
	used_titles = EXCLUDED.used_titles,
	completed_at = EXCLUDED.completed_at`

	selectSessionColumns = `SELECT id, major, position, questions, used_titles, created_at, completed_at FROM interview_sessions`

	getSessionQuery   = selectSessionColumns + ` WHERE id = $1`
	listSessionsQuery = selectSessionColumns + ` ORDER BY created_at DESC`

	sessionExistsQuery = `SELECT EXISTS (SELECT 1 FROM interview_sessions WHERE id = $1)`

	insertResponseQuery = `INSERT INTO responses (id, session_id, question_title, answer, duration_seconds, expected_duration_seconds, evaluation, review, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listResponsesQuery = `SELECT id, session_id, question_title, answer, duration_seconds, expected_duration_seconds, evaluation, review, created_at FROM responses WHERE session_id = $1 ORDER BY created_at`
)

// Postgres stores sessions and responses in two tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresFromDB(db), nil
}

// NewPostgresFromDB wraps an already opened database.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating postgres schema: %w", err)
	}
	return nil
}

func (p *Postgres) SaveSession(ctx context.Context, s *Session) error {
	if err := validateSession(s); err != nil {
		return err
	}

	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	used, err := json.Marshal(s.UsedTitles)
	if err != nil {
		return fmt.Errorf("marshal used titles: %w", err)
	}

	var completed sql.NullTime
	if s.CompletedAt != nil {
		completed = sql.NullTime{Time: *s.CompletedAt, Valid: true}
	}

	if _, err := p.db.ExecContext(ctx, upsertSessionQuery,
		s.ID, s.Major, s.Position, questions, used, s.CreatedAt, completed,
	); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, ErrNotFound
	}

	s, err := scanSession(p.db.QueryRowContext(ctx, getSessionQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return s, nil
}

func (p *Postgres) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := p.db.QueryContext(ctx, listSessionsQuery)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (p *Postgres) AddResponse(ctx context.Context, r *Response) error {
	if err := validateResponse(r); err != nil {
		return err
	}

	ev, err := json.Marshal(r.Evaluation)
	if err != nil {
		return fmt.Errorf("marshal evaluation: %w", err)
	}

	var review any
	if r.Review != nil {
		data, err := json.Marshal(r.Review)
		if err != nil {
			return fmt.Errorf("marshal review: %w", err)
		}
		review = data
	}

	_, err = p.db.ExecContext(ctx, insertResponseQuery,
		r.ID, r.SessionID, r.QuestionTitle, r.Answer,
		r.DurationSeconds, r.ExpectedDurationSeconds, ev, review, r.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("saving response %s: %w", r.ID, err)
	}
	return nil
}

func (p *Postgres) ListResponses(ctx context.Context, sessionID string) ([]Response, error) {
	if err := validateID(sessionID); err != nil {
		return nil, ErrNotFound
	}

	var exists bool
	if err := p.db.QueryRowContext(ctx, sessionExistsQuery, sessionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := p.db.QueryContext(ctx, listResponsesQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	defer rows.Close()

	responses := []Response{}
	for rows.Next() {
		var (
			r      Response
			ev     []byte
			review []byte
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.QuestionTitle, &r.Answer,
			&r.DurationSeconds, &r.ExpectedDurationSeconds, &ev, &review, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning response: %w", err)
		}
		if err := json.Unmarshal(ev, &r.Evaluation); err != nil {
			return nil, fmt.Errorf("parsing evaluation of response %s: %w", r.ID, err)
		}
		if len(review) > 0 {
			if err := json.Unmarshal(review, &r.Review); err != nil {
				return nil, fmt.Errorf("parsing review of response %s: %w", r.ID, err)
			}
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s         Session
		questions []byte
		used      []byte
		completed sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.Major, &s.Position, &questions, &used, &s.CreatedAt, &completed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("parsing questions: %w", err)
	}
	if err := json.Unmarshal(used, &s.UsedTitles); err != nil {
		return nil, fmt.Errorf("parsing used titles: %w", err)
	}
	if completed.Valid {
		at := completed.Time.UTC()
		s.CompletedAt = &at
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
