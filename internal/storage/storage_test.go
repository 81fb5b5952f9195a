package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runix-ai/runix/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := Open(path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestInitIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	// A second Init against the same file must not fail or duplicate anything.
	require.NoError(t, s.Init(context.Background()))
}

func TestCitationIndexMigration(t *testing.T) {
	// Simulate a pre-migration store file: evidence table without citation_index.
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := Open(path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	_, err = s.DB().ExecContext(ctx, `CREATE TABLE evidence (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		section TEXT,
		span_start INTEGER,
		span_end INTEGER,
		text_hash TEXT NOT NULL,
		figure_id TEXT,
		table_id TEXT,
		claim_id TEXT,
		raw_text TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)

	require.NoError(t, s.Init(ctx))

	has, err := s.columnExists(ctx, "evidence", "citation_index")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := uuid.New().String()
	require.NoError(t, s.CreateTask(ctx, model.Task{
		ID:     id,
		Agent:  "SCOUT",
		Status: model.StatusRunning,
	}))

	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "SCOUT", got.Agent)
	assert.Equal(t, model.StatusRunning, got.Status)
	assert.Nil(t, got.AnswerMarkdown)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, s.CompleteTask(ctx, id, "final answer [1]"))

	got, err = s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, got.Status)
	require.NotNil(t, got.AnswerMarkdown)
	assert.Equal(t, "final answer [1]", *got.AnswerMarkdown)
}

func TestFailTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := uuid.New().String()
	require.NoError(t, s.CreateTask(ctx, model.Task{ID: id, Agent: "SCHOLAR", Status: model.StatusRunning}))
	require.NoError(t, s.FailTask(ctx, id))

	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Nil(t, got.AnswerMarkdown)
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMissingTask(t *testing.T) {
	s := newTestStore(t)
	err := s.CompleteTask(context.Background(), uuid.New().String(), "answer")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessagesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := uuid.New().String()
	require.NoError(t, s.CreateTask(ctx, model.Task{ID: id, Agent: "SCOUT", Status: model.StatusRunning}))

	for _, m := range []struct{ author, content string }{
		{model.AuthorUser, "first question"},
		{model.AuthorAI, "first answer"},
		{model.AuthorUser, "follow-up"},
	} {
		_, err := s.AppendMessage(ctx, id, m.author, m.content)
		require.NoError(t, err)
	}

	msgs, err := s.ListMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, model.AuthorAI, msgs[1].Author)
	assert.Equal(t, "follow-up", msgs[2].Content)
	assert.Less(t, msgs[0].ID, msgs[1].ID)
	assert.Less(t, msgs[1].ID, msgs[2].ID)
}

func TestEvidenceBatchAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	taskID := uuid.New().String()
	require.NoError(t, s.CreateTask(ctx, model.Task{ID: taskID, Agent: "SCOUT", Status: model.StatusRunning}))

	evs := []model.Evidence{
		{TaskID: taskID, DocID: "10.1000/example", SourceType: "doi", TextHash: "abc", RawText: "cited passage", CitationIndex: 1},
		{TaskID: taskID, DocID: "https://example.org/paper", SourceType: "url", TextHash: "def", RawText: "other passage", CitationIndex: 2},
	}
	require.NoError(t, s.CreateEvidenceBatch(ctx, evs))

	got, err := s.ListEvidence(ctx, taskID, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].CitationIndex)
	assert.Equal(t, "doi", got[0].SourceType)
	assert.Equal(t, 2, got[1].CitationIndex)

	// Appending the same batch again is not deduplicated.
	require.NoError(t, s.CreateEvidenceBatch(ctx, evs))
	got, err = s.ListEvidence(ctx, taskID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	// Unfiltered listing is newest-first.
	all, err := s.ListEvidence(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID)
}

func TestCountTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.CreateTask(ctx, model.Task{ID: uuid.New().String(), Agent: "SCOUT", Status: model.StatusRunning}))
	n, err = s.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
