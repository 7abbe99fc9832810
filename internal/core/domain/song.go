// Package domain holds the core types of the song metrics pipeline.
package domain

import "time"

// Song is one row of the tracked-song catalog.
type Song struct {
	VideoID     string // opaque external key, empty when no video is linked
	Title       string
	Year        int
	VoteTotal   float64
	HasVotes    bool
	ViewsPerDay float64
	HasViews    bool
}

// Eligible reports whether the song belongs to the analysis cohort for the
// given year. Both metrics must be present and strictly positive.
func (s Song) Eligible(year int) bool {
	return s.Year == year && s.HasVotes && s.VoteTotal > 0 && s.HasViews && s.ViewsPerDay > 0
}

// Observation is a single dated statistics reading for a video.
// Observations are append-only; readers take the latest row per VideoID.
type Observation struct {
	VideoID     string
	Title       string
	ViewCount   int64
	PublishedAt time.Time
	ObservedAt  time.Time
}

// ViewsPerDay derives the daily view rate at the given instant. Elapsed days
// are floored at one so a video observed on its publish day does not divide
// by zero.
func (o Observation) ViewsPerDay(now time.Time) float64 {
	days := now.Sub(o.PublishedAt).Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(o.ViewCount) / float64(int64(days))
}

// Derived is a Song normalized against the reference record. Derived values
// keep full precision; rounding happens only at presentation time.
type Derived struct {
	Song
	NormalizedViews      float64
	NormalizedVotes      float64
	ProportionDifference float64
}
