package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvallejo/pinboard/internal/task"
)

// fakeCRUDServer mimics the remote pinboard task API.
type fakeCRUDServer struct {
	tasks    map[string]task.Task
	lastAuth string
}

func (f *fakeCRUDServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		switch r.Method {
		case http.MethodGet:
			list := make([]task.Task, 0, len(f.tasks))
			for _, t := range f.tasks {
				list = append(list, t)
			}
			_ = json.NewEncoder(w).Encode(list)
		case http.MethodPost:
			var t task.Task
			_ = json.NewDecoder(r.Body).Decode(&t)
			t.Owner = "42" // server canonicalizes ownership
			f.tasks[t.ID] = t
			_ = json.NewEncoder(w).Encode(t)
		}
	})
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		id := r.URL.Path[len("/tasks/"):]
		switch r.Method {
		case http.MethodPut:
			if _, ok := f.tasks[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "task not found"})
				return
			}
			var t task.Task
			_ = json.NewDecoder(r.Body).Decode(&t)
			f.tasks[id] = t
			_ = json.NewEncoder(w).Encode(t)
		case http.MethodDelete:
			if _, ok := f.tasks[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "task not found"})
				return
			}
			delete(f.tasks, id)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Deleted"})
		}
	})
	return mux
}

func setupRemoteBackend(t *testing.T) (*RemoteBackend, *fakeCRUDServer, func()) {
	t.Helper()
	fake := &fakeCRUDServer{tasks: make(map[string]task.Task)}
	srv := httptest.NewServer(fake.handler())
	return NewRemoteBackend(srv.URL, "test-token"), fake, srv.Close
}

func TestRemoteBackend_CreateAdoptsCanonicalTask(t *testing.T) {
	b, fake, cleanup := setupRemoteBackend(t)
	defer cleanup()

	created := task.New(task.Patch{Title: strPtr("remote")}, time.Now())
	accepted, err := b.Create(context.Background(), created)

	require.NoError(t, err)
	assert.Equal(t, "42", accepted.Owner)
	assert.Equal(t, "Bearer test-token", fake.lastAuth)
}

func TestRemoteBackend_LoadReturnsCollection(t *testing.T) {
	b, fake, cleanup := setupRemoteBackend(t)
	defer cleanup()

	seed := task.New(task.Patch{Title: strPtr("seeded")}, time.Now())
	fake.tasks[seed.ID] = seed

	loaded, err := b.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, seed.ID, loaded[0].ID)
}

func TestRemoteBackend_UpdateAbsentTaskSurfacesMessage(t *testing.T) {
	b, _, cleanup := setupRemoteBackend(t)
	defer cleanup()

	ghost := task.New(task.Patch{Title: strPtr("ghost")}, time.Now())
	_, err := b.Update(context.Background(), ghost)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found")
}

func TestRemoteBackend_DeleteAbsentIsIdempotent(t *testing.T) {
	b, _, cleanup := setupRemoteBackend(t)
	defer cleanup()

	err := b.Delete(context.Background(), "never-existed")

	assert.NoError(t, err)
}

func TestRemoteBackend_ErrorBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain text failure", http.StatusBadGateway)
	}))
	defer srv.Close()
	b := NewRemoteBackend(srv.URL, "")

	_, err := b.Load(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
