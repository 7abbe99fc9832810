package youtube

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// videoListResponse is the wire shape of videos.list.
type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		PublishedAt string `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		// The API serializes counters as strings.
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

// toDomain maps a wire item to a domain.Observation. The publish timestamp
// is reduced to its YYYY-MM-DD date.
func (it videoItem) toDomain(videoID string) (domain.Observation, error) {
	views, err := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("view count %q: %w", it.Statistics.ViewCount, err)
	}

	raw := it.Snippet.PublishedAt
	if len(raw) < 10 {
		return domain.Observation{}, fmt.Errorf("published date %q too short", raw)
	}
	published, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return domain.Observation{}, fmt.Errorf("published date %q: %w", raw, err)
	}

	return domain.Observation{
		VideoID:     videoID,
		Title:       it.Snippet.Title,
		ViewCount:   views,
		PublishedAt: published,
	}, nil
}
