// Package repository provides PostgreSQL persistence for the board's
// mutation history: every applied add/update/delete, whether driven by the
// user or the assistant, is recorded for auditing.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// MutationEntry is one applied mutation.
type MutationEntry struct {
	TaskID string    `json:"task_id"`
	Action string    `json:"action"` // addTask, updateTask, deleteTask
	Source string    `json:"source"` // user or assistant
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}

// Recorder is the write side of the history log.
type Recorder interface {
	Record(ctx context.Context, entry MutationEntry) error
}

type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(connectionString string) (*PostgresHistory, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresHistory{db: db}, nil
}

func (r *PostgresHistory) Record(ctx context.Context, entry MutationEntry) error {
	query := `
		INSERT INTO task_mutations (task_id, action, source, title, applied_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.TaskID, entry.Action, entry.Source, entry.Title, entry.At)
	if err != nil {
		return fmt.Errorf("failed to record mutation: %w", err)
	}
	return nil
}

// Recent returns the latest mutations, newest first.
func (r *PostgresHistory) Recent(ctx context.Context, limit int) ([]MutationEntry, error) {
	query := `
		SELECT task_id, action, source, title, applied_at
		FROM task_mutations
		ORDER BY applied_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer rows.Close()

	var entries []MutationEntry
	for rows.Next() {
		var e MutationEntry
		if err := rows.Scan(&e.TaskID, &e.Action, &e.Source, &e.Title, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountBySource aggregates applied mutations by source and action.
func (r *PostgresHistory) CountBySource(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT source || ':' || action, COUNT(*)
		FROM task_mutations
		GROUP BY source, action
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutation counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan mutation count: %w", err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (r *PostgresHistory) Close() error {
	return r.db.Close()
}
