package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/food-delivery/internal/coordinator/sagalog"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo, err := New(ctx, openMemory(t))
	require.NoError(t, err)

	at := time.Date(2026, 5, 4, 10, 0, 0, 123, time.UTC)
	entries := []*sagalog.SagaLog{
		{SagaID: "s-1", OrderID: "o-1", Status: sagalog.StatusStarted, Payload: `{"status":"READY"}`, ErrorMessages: "[]", UpdatedAt: at},
		{SagaID: "s-1", OrderID: "o-1", Status: sagalog.StatusStepDone, CurrentStep: "Persist_Status_Step", ErrorMessages: "[]", UpdatedAt: at},
		{SagaID: "s-9", OrderID: "o-2", Status: sagalog.StatusStarted, ErrorMessages: "[]", UpdatedAt: at},
		{SagaID: "s-1", OrderID: "o-1", Status: sagalog.StatusCompleted, ErrorMessages: `["notify failed"]`, TraceID: "t", SpanID: "s", UpdatedAt: at},
	}
	for _, e := range entries {
		require.NoError(t, repo.Save(ctx, e))
	}

	got, err := repo.ListByOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, sagalog.StatusStarted, got[0].Status)
	assert.Equal(t, `{"status":"READY"}`, got[0].Payload)
	assert.Empty(t, got[1].Payload, "NULL payload reads back as empty")
	assert.Equal(t, sagalog.StatusCompleted, got[2].Status)
	assert.Equal(t, []string{"notify failed"}, got[2].Errors())
	assert.True(t, at.Equal(got[2].UpdatedAt))

	none, err := repo.ListByOrder(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &Repository{db: db}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO saga_logs")).
		WillReturnError(errors.New("disk full"))

	err = repo.Save(context.Background(), &sagalog.SagaLog{SagaID: "s-1", UpdatedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
