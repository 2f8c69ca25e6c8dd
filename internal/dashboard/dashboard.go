// Package dashboard aggregates board-level statistics for the stats endpoint
// and the Prometheus board gauges.
package dashboard

import (
	"net/http"
	"time"

	"github.com/rvallejo/pinboard/internal/httputil"
	"github.com/rvallejo/pinboard/internal/metrics"
	"github.com/rvallejo/pinboard/internal/store"
	"github.com/rvallejo/pinboard/internal/urgency"
)

type Dashboard struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Dashboard {
	return &Dashboard{store: s, now: time.Now}
}

// StatsResponse is the payload of GET /api/dashboard/stats.
type StatsResponse struct {
	Total          int            `json:"total"`
	Pending        int            `json:"pending"`
	Completed      int            `json:"completed"`
	CompletionRate int            `json:"completionRate"`
	ByPriority     map[string]int `json:"byPriority"`
	ByUrgency      map[string]int `json:"byUrgency"`
	DemoMode       bool           `json:"demoMode"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

func (d *Dashboard) Stats() StatsResponse {
	now := d.now()
	tasks := d.store.Tasks()
	board := d.store.BoardStats()

	resp := StatsResponse{
		Total:          board.Total,
		Pending:        board.Pending,
		Completed:      board.Completed,
		CompletionRate: board.Rate,
		ByPriority:     make(map[string]int),
		ByUrgency:      make(map[string]int),
		DemoMode:       d.store.Demo(),
		LastUpdated:    now,
	}

	for _, t := range tasks {
		resp.ByPriority[string(t.Priority)]++
		resp.ByUrgency[urgency.Score(t, now).Label]++
	}
	return resp
}

func (d *Dashboard) GetStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, d.Stats())
}

// PublishGauges pushes per-status/label task counts to Prometheus. Called
// periodically by the server.
func (d *Dashboard) PublishGauges() {
	now := d.now()
	counts := make(map[string]map[string]int)
	for _, t := range d.store.Tasks() {
		status := string(t.Status)
		if counts[status] == nil {
			counts[status] = make(map[string]int)
		}
		counts[status][urgency.Score(t, now).Label]++
	}
	metrics.UpdateBoardGauges(counts)
}
