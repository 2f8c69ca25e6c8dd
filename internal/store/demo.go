package store

import (
	"time"

	"github.com/rvallejo/pinboard/internal/task"
)

// demoTasks is the built-in dataset used when no backend is reachable.
func demoTasks(now time.Time) []task.Task {
	return []task.Task{
		{
			ID:          "1",
			Title:       "Complete Project Proposal",
			Description: "Finalize the AI Pinboard PA functional requirements and tech stack overview.",
			Deadline:    now.Add(24 * time.Hour),
			Priority:    task.PriorityHigh,
			Status:      task.StatusPending,
			CreatedAt:   now,
		},
		{
			ID:          "2",
			Title:       "Weekly Grocery Shopping",
			Description: "Buy fresh vegetables, milk, and coffee beans.",
			Deadline:    now.Add(48 * time.Hour),
			Priority:    task.PriorityMedium,
			Status:      task.StatusPending,
			CreatedAt:   now,
		},
		{
			ID:          "3",
			Title:       "Urgent System Update",
			Description: "Update all production servers to the latest security patch.",
			Deadline:    now.Add(time.Hour),
			Priority:    task.PriorityUrgent,
			Status:      task.StatusPending,
			CreatedAt:   now,
		},
	}
}
