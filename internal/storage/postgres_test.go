package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresFromDB(db), mock
}

func TestPostgresMigrate(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS interview_sessions`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAndGetSession(t *testing.T) {
	store, mock := newMockPostgres(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := sampleSession(created)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO interview_sessions`)).
		WithArgs(s.ID, "computer_science", "后端工程师", sqlmock.AnyArg(), []byte(`["编程经验"]`), created, sql.NullTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveSession(ctx, s))

	questions, err := json.Marshal(s.Questions)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "major", "position", "questions", "used_titles", "created_at", "completed_at"}).
		AddRow(s.ID, "computer_science", "后端工程师", questions, []byte(`["编程经验"]`), created, nil)
	mock.ExpectQuery(regexp.QuoteMeta(getSessionQuery)).WithArgs(s.ID).WillReturnRows(rows)

	got, err := store.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Questions, got.Questions)
	assert.Equal(t, []string{"编程经验"}, got.UsedTitles)
	assert.Nil(t, got.CompletedAt)

	mock.ExpectQuery(regexp.QuoteMeta(getSessionQuery)).WithArgs(s.ID).WillReturnError(sql.ErrNoRows)
	_, err = store.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSessions(t *testing.T) {
	store, mock := newMockPostgres(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "major", "position", "questions", "used_titles", "created_at", "completed_at"}).
		AddRow("7b0c1f8e-8f5e-4a53-9d0a-3f9b8f1e2a10", "business", "", []byte(`[]`), []byte(`[]`), completed, completed).
		AddRow("1c4a2d6e-2b1f-4e8a-8f0c-6a7b9c0d1e2f", "marketing", "", []byte(`[]`), []byte(`[]`), created, nil)
	mock.ExpectQuery(regexp.QuoteMeta(listSessionsQuery)).WillReturnRows(rows)

	sessions, err := store.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "business", sessions[0].Major)
	require.NotNil(t, sessions[0].CompletedAt)
	assert.True(t, sessions[0].CompletedAt.Equal(completed))
	assert.Nil(t, sessions[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddResponse(t *testing.T) {
	store, mock := newMockPostgres(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	r := sampleResponse("7b0c1f8e-8f5e-4a53-9d0a-3f9b8f1e2a10", created)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO responses`)).
		WithArgs(r.ID, r.SessionID, r.QuestionTitle, r.Answer, 150, 180, sqlmock.AnyArg(), sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.AddResponse(ctx, r))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO responses`)).
		WillReturnError(&pq.Error{Code: foreignKeyViolation})
	assert.ErrorIs(t, store.AddResponse(ctx, r), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListResponses(t *testing.T) {
	store, mock := newMockPostgres(t)
	ctx := context.Background()
	sessionID := "7b0c1f8e-8f5e-4a53-9d0a-3f9b8f1e2a10"
	created := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	want := sampleResponse(sessionID, created)

	ev, err := json.Marshal(want.Evaluation)
	require.NoError(t, err)
	review, err := json.Marshal(want.Review)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(sessionExistsQuery)).WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(listResponsesQuery)).WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "question_title", "answer", "duration_seconds", "expected_duration_seconds", "evaluation", "review", "created_at"}).
			AddRow(want.ID, sessionID, want.QuestionTitle, want.Answer, 150, 180, ev, review, created).
			AddRow("0f1e2d3c-4b5a-4968-8776-655443322110", sessionID, "自我介绍", "……", 60, 120, ev, nil, created.Add(time.Minute)))

	responses, err := store.ListResponses(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, want.Evaluation, responses[0].Evaluation)
	assert.Equal(t, want.Review, responses[0].Review)
	assert.Nil(t, responses[1].Review)

	mock.ExpectQuery(regexp.QuoteMeta(sessionExistsQuery)).WithArgs(sessionID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = store.ListResponses(ctx, sessionID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
