package assistant

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvallejo/pinboard/internal/task"
)

func TestParseToolCall_AddTask(t *testing.T) {
	tc, err := parseToolCall(rawCall("addTask",
		`{"title":"Buy milk","description":"2 liters","deadline":"2026-09-01T09:00:00Z","priority":"High"}`))

	require.NoError(t, err)
	assert.Equal(t, ActionAddTask, tc.Action)
	require.NotNil(t, tc.Patch.Title)
	assert.Equal(t, "Buy milk", *tc.Patch.Title)
	require.NotNil(t, tc.Patch.Description)
	assert.Equal(t, "2 liters", *tc.Patch.Description)
	require.NotNil(t, tc.Patch.Deadline)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), *tc.Patch.Deadline)
	require.NotNil(t, tc.Patch.Priority)
	assert.Equal(t, task.PriorityHigh, *tc.Patch.Priority)
}

func TestParseToolCall_UpdateTaskSubset(t *testing.T) {
	tc, err := parseToolCall(rawCall("updateTask", `{"id":"abc","status":"Completed"}`))

	require.NoError(t, err)
	assert.Equal(t, ActionUpdateTask, tc.Action)
	assert.Equal(t, "abc", tc.Patch.ID)
	require.NotNil(t, tc.Patch.Status)
	assert.Equal(t, task.StatusCompleted, *tc.Patch.Status)
	assert.Nil(t, tc.Patch.Title)
	assert.Nil(t, tc.Patch.Deadline)
}

func TestParseToolCall_DeleteTask(t *testing.T) {
	tc, err := parseToolCall(rawCall("deleteTask", `{"id":"xyz"}`))

	require.NoError(t, err)
	assert.Equal(t, ActionDeleteTask, tc.Action)
	assert.Equal(t, "xyz", tc.Patch.ID)
}

func TestParseToolCall_UnknownName(t *testing.T) {
	_, err := parseToolCall(rawCall("renameBoard", `{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool action")
}

func TestParseToolCall_MalformedArgs(t *testing.T) {
	_, err := parseToolCall(rawCall("addTask", `{"title":`))

	assert.Error(t, err)
}

func TestParseToolCall_InvalidEnumsAreDropped(t *testing.T) {
	tc, err := parseToolCall(rawCall("updateTask",
		`{"id":"abc","priority":"Extreme","status":"Paused"}`))

	require.NoError(t, err)
	assert.Nil(t, tc.Patch.Priority)
	assert.Nil(t, tc.Patch.Status)
}

func TestParseDeadline_Layouts(t *testing.T) {
	for _, s := range []string{
		"2026-09-01T09:00:00Z",
		"2026-09-01T09:00:00+02:00",
		"2026-09-01T09:00:00",
		"2026-09-01",
	} {
		_, err := parseDeadline(s)
		assert.NoError(t, err, s)
	}

	_, err := parseDeadline("next tuesday")
	assert.Error(t, err)
}

func TestTaskTools_SchemasAreValidJSON(t *testing.T) {
	tools := taskTools()
	require.Len(t, tools, 3)

	for _, tool := range tools {
		var schema map[string]any
		require.NoError(t, json.Unmarshal(tool.Parameters, &schema), tool.Name)
		assert.Equal(t, "OBJECT", schema["type"], tool.Name)
		assert.Contains(t, schema, "required", tool.Name)
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "addTask", ActionAddTask.String())
	assert.Equal(t, "updateTask", ActionUpdateTask.String())
	assert.Equal(t, "deleteTask", ActionDeleteTask.String())
}
