package assistant

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rvallejo/pinboard/internal/task"
)

// Action is the closed set of mutations the assistant may request. Dispatch
// is an exhaustive switch, so an unhandled action is a compile-time concern.
type Action int

const (
	ActionAddTask Action = iota
	ActionUpdateTask
	ActionDeleteTask
)

func (a Action) String() string {
	switch a {
	case ActionAddTask:
		return "addTask"
	case ActionUpdateTask:
		return "updateTask"
	case ActionDeleteTask:
		return "deleteTask"
	}
	return "unknown"
}

// ToolCall is a validated tool invocation with a typed payload.
type ToolCall struct {
	Action Action
	Patch  task.Patch
}

// toolArgs is the argument shape shared by the three task tools. Deadline
// arrives as an ISO-8601 string from the model.
type toolArgs struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDeadline(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable deadline %q", s)
}

// parseToolCall validates a raw invocation against the action set and builds
// the typed patch. Enum fields with invalid values are dropped rather than
// rejected; the store's merge semantics govern final acceptance.
func parseToolCall(raw RawToolCall) (ToolCall, error) {
	var action Action
	switch raw.Name {
	case "addTask":
		action = ActionAddTask
	case "updateTask":
		action = ActionUpdateTask
	case "deleteTask":
		action = ActionDeleteTask
	default:
		return ToolCall{}, fmt.Errorf("unknown tool action %q", raw.Name)
	}

	var args toolArgs
	if err := json.Unmarshal(raw.Args, &args); err != nil {
		return ToolCall{}, fmt.Errorf("decode %s args: %w", raw.Name, err)
	}

	p := task.Patch{
		ID:          args.ID,
		Title:       args.Title,
		Description: args.Description,
	}
	if args.Deadline != nil {
		if deadline, err := parseDeadline(*args.Deadline); err == nil {
			p.Deadline = &deadline
		}
	}
	if args.Priority != nil {
		if priority := task.Priority(*args.Priority); priority.Valid() {
			p.Priority = &priority
		}
	}
	if args.Status != nil {
		if status := task.Status(*args.Status); status.Valid() {
			p.Status = &status
		}
	}

	return ToolCall{Action: action, Patch: p}, nil
}

// taskTools declares the three task mutations in the schema format the
// completion service expects.
func taskTools() []Tool {
	return []Tool{
		{
			Name:        "addTask",
			Description: "Add a new task to the user's pinboard.",
			Parameters: json.RawMessage(`{
				"type": "OBJECT",
				"properties": {
					"title": {"type": "STRING", "description": "The title of the task."},
					"description": {"type": "STRING", "description": "Detailed notes about the task."},
					"deadline": {"type": "STRING", "description": "ISO format date string for when the task is due."},
					"priority": {"type": "STRING", "description": "The urgency level of the task.", "enum": ["Low", "Medium", "High", "Urgent"]}
				},
				"required": ["title", "deadline", "priority"]
			}`),
		},
		{
			Name:        "updateTask",
			Description: "Update an existing task's details.",
			Parameters: json.RawMessage(`{
				"type": "OBJECT",
				"properties": {
					"id": {"type": "STRING", "description": "The unique ID of the task to update."},
					"title": {"type": "STRING"},
					"description": {"type": "STRING"},
					"deadline": {"type": "STRING"},
					"priority": {"type": "STRING", "enum": ["Low", "Medium", "High", "Urgent"]},
					"status": {"type": "STRING", "enum": ["Pending", "Completed"]}
				},
				"required": ["id"]
			}`),
		},
		{
			Name:        "deleteTask",
			Description: "Delete a task by its ID.",
			Parameters: json.RawMessage(`{
				"type": "OBJECT",
				"properties": {
					"id": {"type": "STRING", "description": "ID of the task to delete."}
				},
				"required": ["id"]
			}`),
		},
	}
}
