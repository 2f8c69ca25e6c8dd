// Package api exposes the pinboard over HTTP: task CRUD with filtering and
// urgency ranking, the assistant chat endpoint, the voice bridge, and the
// dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/rvallejo/pinboard/internal/assistant"
	"github.com/rvallejo/pinboard/internal/dashboard"
	"github.com/rvallejo/pinboard/internal/httputil"
	"github.com/rvallejo/pinboard/internal/metrics"
	"github.com/rvallejo/pinboard/internal/repository"
	"github.com/rvallejo/pinboard/internal/store"
	"github.com/rvallejo/pinboard/internal/task"
	"github.com/rvallejo/pinboard/internal/urgency"
	"github.com/rvallejo/pinboard/internal/voice"
)

type API struct {
	store        *store.Store
	orchestrator *assistant.Orchestrator
	recognizer   voice.Recognizer
	player       *voice.Player
	history      repository.Recorder
	browser      HistoryBrowser
	autoSpeak    bool
	mux          *http.ServeMux
	now          func() time.Time
}

// HistoryBrowser is the read side of the mutation audit log.
type HistoryBrowser interface {
	Recent(ctx context.Context, limit int) ([]repository.MutationEntry, error)
	CountBySource(ctx context.Context) (map[string]int, error)
}

// Options carries the optional collaborators. Any of them may be nil; the
// matching endpoints then report 503.
type Options struct {
	Orchestrator *assistant.Orchestrator
	Recognizer   voice.Recognizer
	Player       *voice.Player
	History      repository.Recorder
	Browser      HistoryBrowser
	AutoSpeak    bool
}

func NewAPI(s *store.Store, opts Options) *API {
	api := &API{
		store:        s,
		orchestrator: opts.Orchestrator,
		recognizer:   opts.Recognizer,
		player:       opts.Player,
		history:      opts.History,
		browser:      opts.Browser,
		autoSpeak:    opts.AutoSpeak,
		mux:          http.NewServeMux(),
		now:          time.Now,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("/api/tasks", a.handleTasks)
	a.mux.HandleFunc("/api/tasks/", a.handleTaskByID)
	a.mux.HandleFunc("/api/chat", a.handleChat)
	a.mux.HandleFunc("/api/voice/transcribe", a.handleTranscribe)
	a.mux.HandleFunc("/api/voice/speak", a.handleSpeak)
	a.mux.HandleFunc("/api/voice/stop", a.handleVoiceStop)
	a.mux.HandleFunc("/healthz", a.handleHealth)

	dash := dashboard.New(a.store)
	a.mux.HandleFunc("/api/dashboard/stats", dash.GetStats)
	a.mux.HandleFunc("/api/dashboard/history", a.handleHistory)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// TaskView is a task annotated with its urgency at response time.
type TaskView struct {
	task.Task
	UrgencyScore int    `json:"urgencyScore"`
	UrgencyLabel string `json:"urgencyLabel"`
	Countdown    string `json:"countdown"`
}

func (a *API) viewOf(t task.Task, now time.Time) TaskView {
	m := urgency.Score(t, now)
	return TaskView{
		Task:         t,
		UrgencyScore: m.Score,
		UrgencyLabel: m.Label,
		Countdown:    urgency.Countdown(t.Deadline, now),
	}
}

func (a *API) views(tasks []task.Task) []TaskView {
	now := a.now()
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = a.viewOf(t, now)
	}
	return views
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTasks(w, r)
	case http.MethodPost:
		a.createTask(w, r)
	default:
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		Query:    q.Get("q"),
		Priority: q.Get("priority"),
		Status:   q.Get("status"),
	}

	httputil.WriteJSON(w, http.StatusOK, a.views(a.store.List(filter)))
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	var patch task.Patch
	if err := decodeBody(r, &patch); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created, err := a.store.Add(r.Context(), patch)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	a.recordMutation(r.Context(), created.ID, "addTask", created.Title)
	httputil.WriteJSON(w, http.StatusCreated, a.viewOf(created, a.now()))
}

func (a *API) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		httputil.WriteJSONError(w, http.StatusNotFound, "task not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getTask(w, r, id)
	case http.MethodPut:
		a.updateTask(w, r, id)
	case http.MethodDelete:
		a.deleteTask(w, r, id)
	default:
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (a *API) getTask(w http.ResponseWriter, _ *http.Request, id string) {
	t, ok := a.store.Get(id)
	if !ok {
		httputil.WriteJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a.viewOf(t, a.now()))
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request, id string) {
	var patch task.Patch
	if err := decodeBody(r, &patch); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	patch.ID = id

	updated, err := a.store.Update(r.Context(), patch)
	if errors.Is(err, store.ErrNotFound) {
		httputil.WriteJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	a.recordMutation(r.Context(), updated.ID, "updateTask", updated.Title)
	httputil.WriteJSON(w, http.StatusOK, a.viewOf(updated, a.now()))
}

func (a *API) deleteTask(w http.ResponseWriter, r *http.Request, id string) {
	title := ""
	if t, ok := a.store.Get(id); ok {
		title = t.Title
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	a.recordMutation(r.Context(), id, "deleteTask", title)
	w.WriteHeader(http.StatusNoContent)
}

// ChatRequest is the payload of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply, the mutations it applied, and
// the freshly ranked board. Audio is set when auto-speak is on and synthesis
// succeeded.
type ChatResponse struct {
	Reply   string                    `json:"reply"`
	Applied []assistant.AppliedAction `json:"applied"`
	Tasks   []TaskView                `json:"tasks"`
	Audio   string                    `json:"audio,omitempty"`
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.orchestrator == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}

	var req ChatRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := a.orchestrator.Converse(r.Context(), req.Message)
	if errors.Is(err, assistant.ErrBusy) {
		httputil.WriteJSONError(w, http.StatusConflict, "assistant is handling another request")
		return
	}
	// Completion failures still produce an apology reply for the transcript,
	// so the turn is returned to the client rather than dropped.
	if err != nil {
		log.Printf("chat turn failed: %v", err)
	}

	resp := ChatResponse{
		Reply:   reply.Text,
		Applied: reply.Applied,
		Tasks:   a.views(a.store.List(store.Filter{})),
	}
	if err == nil && a.autoSpeak && a.player != nil {
		audio, speakErr := a.player.Speak(r.Context(), reply.Text)
		if speakErr != nil {
			log.Printf("auto-speak failed: %v", speakErr)
		} else {
			resp.Audio = audio
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// TranscribeResponse extends a chat turn with the recognized utterance.
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
	ChatResponse
}

// handleTranscribe accepts a single captured utterance as the request body,
// transcribes it, and runs the transcript through a full chat turn.
func (a *API) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.recognizer == nil || a.orchestrator == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "voice input not configured")
		return
	}

	// A new utterance interrupts whatever the assistant is saying.
	if a.player != nil {
		a.player.Stop()
	}

	format := r.URL.Query().Get("format")
	transcript, err := a.recognizer.Transcribe(r.Context(), r.Body, format)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}
	if strings.TrimSpace(transcript) == "" {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, "no speech recognized")
		return
	}
	metrics.RecordTranscription()

	reply, err := a.orchestrator.Converse(r.Context(), transcript)
	if errors.Is(err, assistant.ErrBusy) {
		httputil.WriteJSONError(w, http.StatusConflict, "assistant is handling another request")
		return
	}
	if err != nil {
		log.Printf("voice chat turn failed: %v", err)
	}

	resp := TranscribeResponse{
		Transcript: transcript,
		ChatResponse: ChatResponse{
			Reply:   reply.Text,
			Applied: reply.Applied,
			Tasks:   a.views(a.store.List(store.Filter{})),
		},
	}
	if err == nil && a.autoSpeak && a.player != nil {
		audio, speakErr := a.player.Speak(r.Context(), reply.Text)
		if speakErr != nil {
			log.Printf("auto-speak failed: %v", speakErr)
		} else {
			resp.Audio = audio
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

type SpeakRequest struct {
	Text string `json:"text"`
}

func (a *API) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.player == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "voice output not configured")
		return
	}

	var req SpeakRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		httputil.WriteJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := a.player.Speak(r.Context(), req.Text)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, "synthesis failed: "+err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"audio": audio})
}

func (a *API) handleVoiceStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.player != nil {
		a.player.Stop()
	}
	w.WriteHeader(http.StatusNoContent)
}

// HistoryResponse is the payload of GET /api/dashboard/history.
type HistoryResponse struct {
	Entries []repository.MutationEntry `json:"entries"`
	Counts  map[string]int             `json:"counts"`
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.browser == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "mutation history not configured")
		return
	}

	entries, err := a.browser.Recent(r.Context(), 50)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	counts, err := a.browser.CountBySource(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Counts: counts})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"demo":   a.store.Demo(),
	})
}

func (a *API) recordMutation(ctx context.Context, taskID, action, title string) {
	if a.history == nil {
		return
	}
	entry := repository.MutationEntry{
		TaskID: taskID,
		Action: action,
		Source: "user",
		Title:  title,
		At:     a.now(),
	}
	if err := a.history.Record(ctx, entry); err != nil {
		log.Printf("failed to record %s mutation: %v", action, err)
	}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("failed to close request body: %v", err)
		}
	}()
	return json.Unmarshal(body, v)
}
