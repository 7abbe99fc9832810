package services

import (
	"context"
	"log"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
)

// Progress is invoked after each lookup in a refresh run. err is nil for a
// successful write-back and non-nil for a skipped record.
type Progress func(done, total int, song domain.Song, err error)

// RefreshSummary reports the outcome of a refresh run.
type RefreshSummary struct {
	Total   int
	Updated int
	Skipped int
}

// Refresher runs the sequential, best-effort statistics refresh loop. One
// failing lookup never aborts the remaining ones.
type Refresher struct {
	stats ports.StatsProvider
	store ports.ObservationStore
	now   func() time.Time
}

// NewRefresher constructs a Refresher.
func NewRefresher(stats ports.StatsProvider, store ports.ObservationStore) *Refresher {
	return &Refresher{
		stats: stats,
		store: store,
		now:   time.Now,
	}
}

// Run fetches statistics for every song with a linked video and appends a
// dated observation per success. Failures are logged, reported through
// progress, and skipped. Run returns early only on context cancellation.
func (r *Refresher) Run(ctx context.Context, songs []domain.Song, progress Progress) RefreshSummary {
	linked := make([]domain.Song, 0, len(songs))
	for _, s := range songs {
		if s.VideoID != "" {
			linked = append(linked, s)
		}
	}

	summary := RefreshSummary{Total: len(linked)}
	for i, s := range linked {
		if ctx.Err() != nil {
			return summary
		}

		obs, err := r.stats.Fetch(ctx, s.VideoID)
		if err == nil {
			obs.ObservedAt = r.now()
			if obs.Title == "" {
				obs.Title = s.Title
			}
			err = r.store.Append(ctx, obs)
		}

		if err != nil {
			summary.Skipped++
			log.Printf("WARN refresher: skipping %q (%s): %v", s.Title, s.VideoID, err)
		} else {
			summary.Updated++
		}

		if progress != nil {
			progress(i+1, len(linked), s, err)
		}
	}

	return summary
}
