// Package urgency computes the composite urgency score used to rank pinboard
// tasks: a deadline-proximity weight plus the task's priority weight.
package urgency

import (
	"fmt"
	"sort"
	"time"

	"github.com/rvallejo/pinboard/internal/task"
)

// CompletedScore is the sentinel score for completed tasks. It is lower than
// any score reachable by an active task, so completed tasks always sort last.
const CompletedScore = -1

const (
	LabelOverdue     = "Overdue"
	LabelDueToday    = "Due Today"
	LabelDueTomorrow = "Due Tomorrow"
	LabelDueThisWeek = "Due This Week"
	LabelUpcoming    = "Upcoming"
	LabelCompleted   = "Completed"
)

// Metrics is the derived urgency of a task at a point in time. It is
// recomputed on demand and never stored.
type Metrics struct {
	Score int    `json:"urgencyScore"`
	Label string `json:"label"`
}

// Score evaluates a task's urgency against the given wall-clock time.
// Buckets are checked in order, first match wins.
func Score(t task.Task, now time.Time) Metrics {
	if t.Status == task.StatusCompleted {
		return Metrics{Score: CompletedScore, Label: LabelCompleted}
	}

	diffHours := t.Deadline.Sub(now).Hours()

	var timeWeight int
	var label string
	switch {
	case diffHours < 0:
		timeWeight, label = 20, LabelOverdue
	case diffHours < 24:
		timeWeight, label = 10, LabelDueToday
	case diffHours < 48:
		timeWeight, label = 5, LabelDueTomorrow
	case diffHours < 168:
		timeWeight, label = 2, LabelDueThisWeek
	default:
		timeWeight, label = 0, LabelUpcoming
	}

	return Metrics{Score: timeWeight + t.Priority.Weight(), Label: label}
}

// Rank returns a new slice ordered by urgency score descending. The sort is
// stable: tasks with equal scores keep their input order. Scores depend on
// wall-clock time, so callers must re-rank whenever the collection changes or
// meaningful time has passed.
func Rank(tasks []task.Task, now time.Time) []task.Task {
	ranked := make([]task.Task, len(tasks))
	copy(ranked, tasks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], now).Score > Score(ranked[j], now).Score
	})
	return ranked
}

// Countdown renders the time remaining until a deadline as a short label,
// e.g. "2d 3h left", "3h 12m left", "41m left", or "Overdue".
func Countdown(deadline, now time.Time) string {
	diff := deadline.Sub(now)
	if diff < 0 {
		return LabelOverdue
	}

	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh left", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm left", hours, minutes)
	}
	return fmt.Sprintf("%dm left", minutes)
}
