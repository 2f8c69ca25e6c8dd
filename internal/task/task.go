// Package task defines the pinboard task domain model shared by the store,
// ranking, and assistant layers. It contains the task record, status and
// priority definitions, and the typed patch used for partial updates.
package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type (
	Status   string
	Priority string
)

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// Weight returns the ranking weight of a priority. Weights roughly double per
// level so priority can break ties between adjacent deadline buckets but never
// override an order-of-magnitude time-urgency gap.
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 4
	case PriorityUrgent:
		return 8
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

type Task struct {
	ID          string     `json:"id"`
	Owner       string     `json:"userId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Patch is a partial task mutation. Nil fields are left unchanged when the
// patch is applied; ID is only meaningful for updates.
type Patch struct {
	ID          string     `json:"id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Status      *Status    `json:"status,omitempty"`
}

// New builds a task from a patch, filling unset fields with defaults:
// title "Untitled", empty description, deadline now, priority Medium.
// Status is always Pending; a fresh id and createdAt are assigned.
func New(p Patch, now time.Time) Task {
	t := Task{
		ID:        uuid.New().String(),
		Title:     "Untitled",
		Deadline:  now,
		Priority:  PriorityMedium,
		Status:    StatusPending,
		CreatedAt: now,
	}
	if p.Title != nil && *p.Title != "" {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Priority != nil && p.Priority.Valid() {
		t.Priority = *p.Priority
	}
	return t
}

// Apply merges a patch over a task and returns the result. A status
// transition to Completed stamps completedAt; a transition back to Pending
// clears it. Invariant: completedAt is set if and only if status is Completed.
func Apply(t Task, p Patch, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Priority != nil && p.Priority.Valid() {
		t.Priority = *p.Priority
	}
	if p.Status != nil && p.Status.Valid() && *p.Status != t.Status {
		t.Status = *p.Status
		if t.Status == StatusCompleted {
			completed := now
			t.CompletedAt = &completed
		} else {
			t.CompletedAt = nil
		}
	}
	return t
}

func (t *Task) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	return string(data), err
}

func FromJSON(data string) (*Task, error) {
	var t Task
	err := json.Unmarshal([]byte(data), &t)
	return &t, err
}
