package rest

import (
	"net/http"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

type songResponse struct {
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	VideoID     string   `json:"youtube_id,omitempty"`
	VoteTotal   *float64 `json:"vote_total"`
	ViewsPerDay *float64 `json:"views_per_day"`
}

// Songs handles GET /api/songs: the merged raw table behind the chart.
func (h *Handler) Songs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.library.Songs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), storageStatus(err))
		return
	}

	out := make([]songResponse, len(songs))
	for i, s := range songs {
		out[i] = toSongResponse(s)
	}
	writeJSON(w, http.StatusOK, out)
}

func toSongResponse(s domain.Song) songResponse {
	resp := songResponse{
		Title:   s.Title,
		Year:    s.Year,
		VideoID: s.VideoID,
	}
	if s.HasVotes {
		v := s.VoteTotal
		resp.VoteTotal = &v
	}
	if s.HasViews {
		v := s.ViewsPerDay
		resp.ViewsPerDay = &v
	}
	return resp
}
