package rest

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

// refreshRun tracks the progress of one refresh loop.
type refreshRun struct {
	ID      string                   `json:"id"`
	Running bool                     `json:"running"`
	Done    int                      `json:"done"`
	Total   int                      `json:"total"`
	Updated int                      `json:"updated"`
	Skipped int                      `json:"skipped"`
	Current string                   `json:"current,omitempty"`
	Summary *services.RefreshSummary `json:"summary,omitempty"`
}

// StartRefresh handles POST /api/refresh. The loop runs in the background;
// clients follow it via GET /api/refresh/status. Only one run at a time.
func (h *Handler) StartRefresh(w http.ResponseWriter, r *http.Request) {
	songs, err := h.library.Songs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), storageStatus(err))
		return
	}

	h.mu.Lock()
	if h.run != nil && h.run.Running {
		run := *h.run
		h.mu.Unlock()
		writeJSON(w, http.StatusConflict, run)
		return
	}
	run := &refreshRun{ID: uuid.NewString(), Running: true}
	h.run = run
	h.mu.Unlock()

	go h.runRefresh(run.ID, songs)

	writeJSON(w, http.StatusAccepted, *run)
}

// RefreshStatus handles GET /api/refresh/status.
func (h *Handler) RefreshStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.run == nil {
		writeJSON(w, http.StatusOK, refreshRun{})
		return
	}
	writeJSON(w, http.StatusOK, *h.run)
}

// runRefresh drives the sequential loop off the request goroutine. The
// request context is gone by now, so the loop runs to completion on its own.
func (h *Handler) runRefresh(runID string, songs []domain.Song) {
	progress := func(done, total int, song domain.Song, err error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.run.Done = done
		h.run.Total = total
		h.run.Current = song.Title
		if err != nil {
			h.run.Skipped++
		} else {
			h.run.Updated++
		}
	}

	summary := h.refresher.Run(context.Background(), songs, progress)

	h.mu.Lock()
	h.run.Running = false
	h.run.Current = ""
	h.run.Summary = &summary
	h.mu.Unlock()

	log.Printf("refresh %s finished: %d updated, %d skipped of %d", runID, summary.Updated, summary.Skipped, summary.Total)
}
