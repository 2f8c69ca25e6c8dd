package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvallejo/pinboard/internal/task"
	"github.com/rvallejo/pinboard/internal/urgency"
)

func strPtr(s string) *string               { return &s }
func priPtr(p task.Priority) *task.Priority { return &p }
func statPtr(s task.Status) *task.Status    { return &s }

// failingBackend rejects every call; Load succeeds so the store leaves demo mode.
type failingBackend struct {
	loaded []task.Task
}

var errBackendDown = errors.New("backend down")

func (b *failingBackend) Load(context.Context) ([]task.Task, error) { return b.loaded, nil }
func (b *failingBackend) Create(context.Context, task.Task) (task.Task, error) {
	return task.Task{}, errBackendDown
}
func (b *failingBackend) Update(context.Context, task.Task) (task.Task, error) {
	return task.Task{}, errBackendDown
}
func (b *failingBackend) Delete(context.Context, string) error { return errBackendDown }

// unreachableBackend fails Load to exercise the demo fallback.
type unreachableBackend struct{}

func (unreachableBackend) Load(context.Context) ([]task.Task, error) {
	return nil, errBackendDown
}
func (unreachableBackend) Create(context.Context, task.Task) (task.Task, error) {
	return task.Task{}, errBackendDown
}
func (unreachableBackend) Update(context.Context, task.Task) (task.Task, error) {
	return task.Task{}, errBackendDown
}
func (unreachableBackend) Delete(context.Context, string) error { return errBackendDown }

func setupDemoStore(t *testing.T) *Store {
	t.Helper()
	s := New(context.Background(), nil)
	require.True(t, s.Demo())
	return s
}

func TestNew_DemoModeWithoutBackend(t *testing.T) {
	s := setupDemoStore(t)

	tasks := s.Tasks()
	assert.Len(t, tasks, 3)
	assert.True(t, s.Demo())
}

func TestNew_DemoFallbackOnLoadFailure(t *testing.T) {
	s := New(context.Background(), unreachableBackend{})

	assert.True(t, s.Demo())
	assert.Len(t, s.Tasks(), 3)
}

func TestAddThenListIncludesTask(t *testing.T) {
	s := setupDemoStore(t)

	created, err := s.Add(context.Background(), task.Patch{Title: strPtr("new task")})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	listed := s.List(Filter{})
	ids := make([]string, 0, len(listed))
	for _, lt := range listed {
		ids = append(ids, lt.ID)
	}
	assert.Contains(t, ids, created.ID)
}

func TestDeleteThenListExcludesTask(t *testing.T) {
	s := setupDemoStore(t)
	created, err := s.Add(context.Background(), task.Patch{Title: strPtr("doomed")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), created.ID))

	for _, lt := range s.List(Filter{}) {
		assert.NotEqual(t, created.ID, lt.ID)
	}
}

func TestDelete_AbsentIDIsNoOp(t *testing.T) {
	s := setupDemoStore(t)
	before := len(s.Tasks())

	err := s.Delete(context.Background(), "no-such-id")

	assert.NoError(t, err)
	assert.Len(t, s.Tasks(), before)
}

func TestUpdate_RoundTrip(t *testing.T) {
	s := setupDemoStore(t)
	created, err := s.Add(context.Background(), task.Patch{
		Title:       strPtr("original"),
		Description: strPtr("unchanged"),
		Priority:    priPtr(task.PriorityHigh),
	})
	require.NoError(t, err)

	updated, err := s.Update(context.Background(), task.Patch{ID: created.ID, Title: strPtr("X")})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Title)

	fetched, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "X", fetched.Title)
	assert.Equal(t, "unchanged", fetched.Description)
	assert.Equal(t, task.PriorityHigh, fetched.Priority)
	assert.Equal(t, created.Deadline, fetched.Deadline)
	assert.Equal(t, created.CreatedAt, fetched.CreatedAt)
}

func TestUpdate_MissingIDIsNotFound(t *testing.T) {
	s := setupDemoStore(t)

	_, err := s.Update(context.Background(), task.Patch{Title: strPtr("no id")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(context.Background(), task.Patch{ID: "ghost", Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_StatusToggleCompletedAt(t *testing.T) {
	s := setupDemoStore(t)
	created, err := s.Add(context.Background(), task.Patch{Title: strPtr("toggle")})
	require.NoError(t, err)

	completed, err := s.Update(context.Background(), task.Patch{ID: created.ID, Status: statPtr(task.StatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	reopened, err := s.Update(context.Background(), task.Patch{ID: created.ID, Status: statPtr(task.StatusPending)})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
}

func TestList_Filters(t *testing.T) {
	s := setupDemoStore(t)

	bySearch := s.List(Filter{Query: "grocery"})
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Weekly Grocery Shopping", bySearch[0].Title)

	byDescription := s.List(Filter{Query: "SECURITY PATCH"})
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Urgent System Update", byDescription[0].Title)

	byPriority := s.List(Filter{Priority: "High"})
	require.Len(t, byPriority, 1)
	assert.Equal(t, "Complete Project Proposal", byPriority[0].Title)

	all := s.List(Filter{Priority: "All", Status: "All"})
	assert.Len(t, all, 3)
}

func TestList_CombinesFiltersWithAND(t *testing.T) {
	s := setupDemoStore(t)
	_, err := s.Add(context.Background(), task.Patch{
		Title:    strPtr("grocery run followup"),
		Priority: priPtr(task.PriorityLow),
	})
	require.NoError(t, err)

	matched := s.List(Filter{Query: "grocery", Priority: "Low"})

	require.Len(t, matched, 1)
	assert.Equal(t, "grocery run followup", matched[0].Title)
}

func TestList_RankedByUrgencyDescending(t *testing.T) {
	s := setupDemoStore(t)
	now := time.Now()

	listed := s.List(Filter{})

	for i := 0; i < len(listed)-1; i++ {
		assert.GreaterOrEqual(t,
			urgency.Score(listed[i], now).Score,
			urgency.Score(listed[i+1], now).Score)
	}
	// The demo set ranks the one-hour Urgent task first.
	assert.Equal(t, "Urgent System Update", listed[0].Title)
}

func TestMutations_NotAppliedLocallyWhenBackendRejects(t *testing.T) {
	seedNow := time.Now()
	backend := &failingBackend{loaded: demoTasks(seedNow)}
	s := New(context.Background(), backend)
	require.False(t, s.Demo())
	before := s.Tasks()

	_, err := s.Add(context.Background(), task.Patch{Title: strPtr("rejected")})
	assert.ErrorIs(t, err, errBackendDown)

	_, err = s.Update(context.Background(), task.Patch{ID: before[0].ID, Title: strPtr("rejected")})
	assert.ErrorIs(t, err, errBackendDown)

	err = s.Delete(context.Background(), before[0].ID)
	assert.ErrorIs(t, err, errBackendDown)

	assert.Equal(t, before, s.Tasks(), "local state must be untouched after backend failures")
}

func TestBoardStats(t *testing.T) {
	s := setupDemoStore(t)
	created, err := s.Add(context.Background(), task.Patch{Title: strPtr("done soon")})
	require.NoError(t, err)
	_, err = s.Update(context.Background(), task.Patch{ID: created.ID, Status: statPtr(task.StatusCompleted)})
	require.NoError(t, err)

	stats := s.BoardStats()

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 25, stats.Rate)
}
