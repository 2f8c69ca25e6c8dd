package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rvallejo/pinboard/internal/task"
)

// RemoteBackend persists tasks through a bearer-authenticated CRUD API:
// GET/POST /tasks, PUT/DELETE /tasks/{id}. Create and Update return the task
// as canonicalized by the server.
type RemoteBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewRemoteBackend(baseURL, token string) *RemoteBackend {
	return &RemoteBackend{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *RemoteBackend) Load(ctx context.Context) ([]task.Task, error) {
	req, err := b.newRequest(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var tasks []task.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (b *RemoteBackend) Create(ctx context.Context, t task.Task) (task.Task, error) {
	return b.send(ctx, http.MethodPost, "/tasks", t)
}

func (b *RemoteBackend) Update(ctx context.Context, t task.Task) (task.Task, error) {
	return b.send(ctx, http.MethodPut, "/tasks/"+t.ID, t)
}

// Delete removes the task server-side. A 404 counts as success so deletes
// stay idempotent when the mirror is already gone.
func (b *RemoteBackend) Delete(ctx context.Context, id string) error {
	req, err := b.newRequest(ctx, http.MethodDelete, "/tasks/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return apiError(resp)
	}
	return nil
}

func (b *RemoteBackend) send(ctx context.Context, method, path string, t task.Task) (task.Task, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return task.Task{}, fmt.Errorf("marshal task: %w", err)
	}

	req, err := b.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return task.Task{}, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return task.Task{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return task.Task{}, apiError(resp)
	}

	var accepted task.Task
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return task.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return accepted, nil
}

func (b *RemoteBackend) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, b.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return req, nil
}

// apiError extracts the failure reason from a non-2xx response body, which
// carries a JSON "message" or "error" field.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			return fmt.Errorf("api error: %s", body.Message)
		}
		if body.Error != "" {
			return fmt.Errorf("api error: %s", body.Error)
		}
	}
	return fmt.Errorf("api error: %s", resp.Status)
}
