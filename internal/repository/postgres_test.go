package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockHistory(t *testing.T) (*PostgresHistory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &PostgresHistory{db: db}, mock
}

func TestRecord(t *testing.T) {
	r, mock := setupMockHistory(t)
	defer func() { _ = r.Close() }()

	at := time.Now()
	mock.ExpectExec("INSERT INTO task_mutations").
		WithArgs("task-1", "addTask", "assistant", "Buy milk", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.Record(context.Background(), MutationEntry{
		TaskID: "task-1",
		Action: "addTask",
		Source: "assistant",
		Title:  "Buy milk",
		At:     at,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DatabaseError(t *testing.T) {
	r, mock := setupMockHistory(t)
	defer func() { _ = r.Close() }()

	mock.ExpectExec("INSERT INTO task_mutations").
		WillReturnError(errors.New("connection reset"))

	err := r.Record(context.Background(), MutationEntry{TaskID: "task-1", Action: "deleteTask", Source: "user"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record mutation")
}

func TestRecent(t *testing.T) {
	r, mock := setupMockHistory(t)
	defer func() { _ = r.Close() }()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"task_id", "action", "source", "title", "applied_at"}).
		AddRow("task-2", "updateTask", "assistant", "Ship release", now).
		AddRow("task-1", "addTask", "user", "Buy milk", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT task_id, action, source, title, applied_at").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := r.Recent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "task-2", entries[0].TaskID)
	assert.Equal(t, "updateTask", entries[0].Action)
	assert.Equal(t, "user", entries[1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBySource(t *testing.T) {
	r, mock := setupMockHistory(t)
	defer func() { _ = r.Close() }()

	rows := sqlmock.NewRows([]string{"key", "count"}).
		AddRow("assistant:addTask", 5).
		AddRow("user:deleteTask", 2)

	mock.ExpectQuery("SELECT source").WillReturnRows(rows)

	counts, err := r.CountBySource(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, counts["assistant:addTask"])
	assert.Equal(t, 2, counts["user:deleteTask"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
