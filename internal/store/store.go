// Package store holds the authoritative in-memory task collection for a
// session and mirrors every mutation to a configured backend. Mutations are
// backend-first: local state only changes after the backend accepts, so the
// collection never ends up partially mutated.
package store

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rvallejo/pinboard/internal/metrics"
	"github.com/rvallejo/pinboard/internal/task"
	"github.com/rvallejo/pinboard/internal/urgency"
)

// ErrNotFound is returned by Update when the patch references an absent id
// or carries no id at all. Delete is idempotent and never returns it.
var ErrNotFound = errors.New("task not found")

// Backend persists the task collection. Create and Update return the
// canonical task as accepted by the backend, which the store adopts.
type Backend interface {
	Load(ctx context.Context) ([]task.Task, error)
	Create(ctx context.Context, t task.Task) (task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

// Filter narrows List results. Zero values ("" / All) match everything.
type Filter struct {
	Query    string
	Priority string // exact priority name or "All"
	Status   string // exact status name or "All"
}

// Stats summarizes the board for the dashboard.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Rate      int `json:"rate"` // completion percentage
}

type Store struct {
	mu      sync.RWMutex
	tasks   []task.Task // newest first
	backend Backend     // nil in demo mode
	demo    bool
	now     func() time.Time
}

// New loads the collection from the backend. A nil backend, or a backend
// whose initial load fails, drops the store into demo mode: the built-in
// seed dataset, memory only, no writes.
func New(ctx context.Context, backend Backend) *Store {
	s := &Store{now: time.Now}

	if backend == nil {
		s.demo = true
		s.tasks = demoTasks(s.now())
		log.Printf("store: no backend configured, running in demo mode")
		return s
	}

	tasks, err := backend.Load(ctx)
	if err != nil {
		s.demo = true
		s.tasks = demoTasks(s.now())
		log.Printf("store: backend unreachable, falling back to demo mode: %v", err)
		return s
	}

	s.backend = backend
	s.tasks = tasks
	return s
}

// Demo reports whether the store is running on seed data without a backend.
func (s *Store) Demo() bool {
	return s.demo
}

// Add creates a task from the patch, persists it, and prepends it to the
// collection. Unset fields receive defaults per task.New.
func (s *Store) Add(ctx context.Context, p task.Patch) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := task.New(p, s.now())
	if s.backend != nil {
		created, err := s.backend.Create(ctx, t)
		if err != nil {
			return task.Task{}, err
		}
		t = created
	}

	s.tasks = append([]task.Task{t}, s.tasks...)
	metrics.RecordTaskCreated()
	return t, nil
}

// Update merges the patch over the referenced task. A patch without an id,
// or with an id that matches nothing, is a no-op reported as ErrNotFound.
func (s *Store) Update(ctx context.Context, p task.Patch) (task.Task, error) {
	if p.ID == "" {
		return task.Task{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(p.ID)
	if idx < 0 {
		return task.Task{}, ErrNotFound
	}

	merged := task.Apply(s.tasks[idx], p, s.now())
	if s.backend != nil {
		accepted, err := s.backend.Update(ctx, merged)
		if err != nil {
			return task.Task{}, err
		}
		merged = accepted
	}

	s.tasks[idx] = merged
	metrics.RecordTaskUpdated()
	return merged, nil
}

// Delete removes the task if present. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	if s.backend != nil {
		if err := s.backend.Delete(ctx, id); err != nil {
			return err
		}
	}

	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	metrics.RecordTaskDeleted()
	return nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return task.Task{}, false
	}
	return s.tasks[idx], true
}

// Tasks returns a snapshot of the collection in insertion order.
func (s *Store) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]task.Task, len(s.tasks))
	copy(snapshot, s.tasks)
	return snapshot
}

// List returns tasks matching the filter, ranked by urgency descending.
// The query matches title or description, case-insensitive; priority and
// status filters are exact matches, AND-combined with the query.
func (s *Store) List(f Filter) []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(f.Query)
	var matched []task.Task
	for _, t := range s.tasks {
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		if f.Priority != "" && f.Priority != "All" && string(t.Priority) != f.Priority {
			continue
		}
		if f.Status != "" && f.Status != "All" && string(t.Status) != f.Status {
			continue
		}
		matched = append(matched, t)
	}

	return urgency.Rank(matched, s.now())
}

// BoardStats aggregates completion counts for the dashboard.
func (s *Store) BoardStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Status == task.StatusCompleted {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.Rate = stats.Completed * 100 / stats.Total
	}
	return stats
}

// caller must hold s.mu
func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
