// Package assistant turns free-form user utterances into validated task
// mutations and a natural-language reply, via an external completion service
// that supports structured tool invocation. It owns the retry policy for
// transient completion failures and applies accepted tool calls to the board
// exactly once, in the order received.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/rvallejo/pinboard/internal/metrics"
	"github.com/rvallejo/pinboard/internal/repository"
	"github.com/rvallejo/pinboard/internal/task"
)

// ErrBusy is returned when a turn is requested while another is in flight.
// Concurrent sends are rejected, not queued.
var ErrBusy = errors.New("assistant is already processing a request")

const (
	maxAttempts  = 3
	defaultReply = "I've processed your request."
	apologyReply = "I encountered an error while processing that. Please check your network and try again."
)

// Board is the task-store surface the orchestrator mutates.
type Board interface {
	Add(ctx context.Context, p task.Patch) (task.Task, error)
	Update(ctx context.Context, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, id string) error
	Tasks() []task.Task
}

// AppliedAction reports one tool call that was applied to the board.
type AppliedAction struct {
	Action string `json:"action"`
	TaskID string `json:"taskId,omitempty"`
}

// Reply is the outcome of a conversation turn.
type Reply struct {
	Text    string          `json:"text"`
	Applied []AppliedAction `json:"applied,omitempty"`
}

type Orchestrator struct {
	completer   Completer
	board       Board
	history     repository.Recorder // may be nil
	conv        *Conversation
	temperature float64
	busy        atomic.Bool
	sleep       func(time.Duration)
	now         func() time.Time
}

// New builds an orchestrator over the given completion service and board.
// history may be nil to disable the mutation audit log.
func New(completer Completer, board Board, history repository.Recorder) *Orchestrator {
	return &Orchestrator{
		completer:   completer,
		board:       board,
		history:     history,
		conv:        NewConversation(),
		temperature: 0.7,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// Conversation exposes the session transcript.
func (o *Orchestrator) Conversation() *Conversation {
	return o.conv
}

// SetTemperature overrides the sampling temperature forwarded to the
// completion service.
func (o *Orchestrator) SetTemperature(v float64) {
	o.temperature = v
}

// Converse runs one turn: the utterance and prior history (minus the welcome
// seed) go upstream with the current task snapshot embedded in the system
// instruction; returned tool calls are applied to the board in order, each
// exactly once. On unrecoverable completion failure the transcript receives
// an apologetic message instead of the raw error.
func (o *Orchestrator) Converse(ctx context.Context, utterance string) (*Reply, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	history := o.conv.History()
	o.conv.Append(RoleUser, utterance)

	req := Request{
		SystemInstruction: o.systemInstruction(),
		History:           history,
		Utterance:         utterance,
		Tools:             taskTools(),
		Temperature:       o.temperature,
	}

	start := o.now()
	res, err := o.complete(ctx, req)
	metrics.RecordCompletionDuration(o.now().Sub(start))
	if err != nil {
		metrics.RecordAssistantTurn("error")
		o.conv.Append(RoleAssistant, apologyReply)
		return &Reply{Text: apologyReply}, err
	}

	applied := o.applyToolCalls(ctx, res.ToolCalls)

	text := res.Text
	if text == "" {
		text = defaultReply
	}
	o.conv.Append(RoleAssistant, text)
	metrics.RecordAssistantTurn("ok")

	return &Reply{Text: text, Applied: applied}, nil
}

// complete calls the completion service with a bounded retry loop: up to two
// additional attempts after a transient failure, with linearly increasing
// backoff (1s, 2s). Non-transient errors propagate immediately.
func (o *Orchestrator) complete(ctx context.Context, req Request) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			log.Printf("assistant: retrying completion after transient error (attempt %d)", attempt+1)
			metrics.RecordCompletionRetry()
			o.sleep(time.Duration(attempt) * time.Second)
		}

		res, err := o.completer.Complete(ctx, req)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// applyToolCalls validates and dispatches each tool call in order. Invalid
// invocations and not-found updates are no-ops, not turn failures.
func (o *Orchestrator) applyToolCalls(ctx context.Context, raws []RawToolCall) []AppliedAction {
	var applied []AppliedAction
	for _, raw := range raws {
		tc, err := parseToolCall(raw)
		if err != nil {
			log.Printf("assistant: skipping tool call: %v", err)
			continue
		}

		var taskID string
		switch tc.Action {
		case ActionAddTask:
			created, err := o.board.Add(ctx, tc.Patch)
			if err != nil {
				log.Printf("assistant: addTask failed: %v", err)
				continue
			}
			taskID = created.ID
		case ActionUpdateTask:
			updated, err := o.board.Update(ctx, tc.Patch)
			if err != nil {
				// Missing or unknown id is a no-op by store contract.
				log.Printf("assistant: updateTask skipped: %v", err)
				continue
			}
			taskID = updated.ID
		case ActionDeleteTask:
			if err := o.board.Delete(ctx, tc.Patch.ID); err != nil {
				log.Printf("assistant: deleteTask failed: %v", err)
				continue
			}
			taskID = tc.Patch.ID
		}

		metrics.RecordToolCall(tc.Action.String())
		o.record(ctx, tc, taskID)
		applied = append(applied, AppliedAction{Action: tc.Action.String(), TaskID: taskID})
	}
	return applied
}

func (o *Orchestrator) record(ctx context.Context, tc ToolCall, taskID string) {
	if o.history == nil {
		return
	}
	var title string
	if tc.Patch.Title != nil {
		title = *tc.Patch.Title
	}
	entry := repository.MutationEntry{
		TaskID: taskID,
		Action: tc.Action.String(),
		Source: "assistant",
		Title:  title,
		At:     o.now(),
	}
	if err := o.history.Record(ctx, entry); err != nil {
		log.Printf("assistant: failed to record mutation history: %v", err)
	}
}

// systemInstruction embeds the current time and the full task snapshot so
// the model can reference real ids and deadlines.
func (o *Orchestrator) systemInstruction() string {
	snapshot, err := json.MarshalIndent(o.board.Tasks(), "", "  ")
	if err != nil {
		snapshot = []byte("[]")
	}

	return `You are "AI Pinboard PA", a highly intelligent personal assistant managing a user's digital pinboard.
Your goal is to help users manage tasks, deadlines, and productivity.
Current user location/time context: ` + o.now().Format("Mon Jan 2 15:04:05 2006 MST") + `.

CURRENT TASKS ON PINBOARD:
` + string(snapshot) + `

CAPABILITIES:
- Add tasks (title, description, deadline, priority)
- Edit/Update tasks
- Delete tasks
- Mark tasks complete (using updateTask)
- Analyze priorities and suggest what to do next.
- Plan the user's day or week.

Always respond warmly and professionally. If you execute a tool, confirm what you've done.`
}
