package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
)

// ViewsSource selects where views-per-day values come from.
type ViewsSource string

const (
	// ViewsDerived computes views per day from the latest observation's raw
	// view count and the elapsed days since publish.
	ViewsDerived ViewsSource = "derived"
	// ViewsColumn trusts the catalog's precomputed column.
	ViewsColumn ViewsSource = "column"
)

// Library merges the song catalog with the latest statistics observations.
type Library struct {
	source ports.SongSource
	stats  ports.ObservationStore
	mode   ViewsSource
	now    func() time.Time
}

// NewLibrary constructs a Library. stats may be nil when only the catalog
// column is used.
func NewLibrary(source ports.SongSource, stats ports.ObservationStore, mode ViewsSource) *Library {
	return &Library{
		source: source,
		stats:  stats,
		mode:   mode,
		now:    time.Now,
	}
}

// Songs loads the catalog and, in derived mode, overlays views per day from
// the latest observation per video. Songs without an observation keep the
// catalog column value.
func (l *Library) Songs(ctx context.Context) ([]domain.Song, error) {
	songs, err := l.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}

	if l.mode != ViewsDerived || l.stats == nil {
		return songs, nil
	}

	latest, err := l.stats.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}

	now := l.now()
	for i, s := range songs {
		obs, ok := latest[s.VideoID]
		if s.VideoID == "" || !ok {
			continue
		}
		songs[i].ViewsPerDay = obs.ViewsPerDay(now)
		songs[i].HasViews = songs[i].ViewsPerDay > 0
		if s.Title == "" && obs.Title != "" {
			songs[i].Title = obs.Title
		}
	}

	return songs, nil
}
