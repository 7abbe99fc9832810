package rest

import (
	"errors"
	"net/http"

	"github.com/ewilliams-labs/chartwatch/internal/adapters/echarts"
	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

// Chart handles GET /chart. Pipeline failures surface as a visible error
// response, never a blank render.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	songs, err := h.library.Songs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), storageStatus(err))
		return
	}

	derived, err := services.Derive(songs, h.pipeline)
	if err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := echarts.RenderTo(derived, h.chart, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func storageStatus(err error) int {
	if errors.Is(err, domain.ErrSchema) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
