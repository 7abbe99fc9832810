package ports

import (
	"context"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// SongSource reads the full song catalog from durable tabular storage.
type SongSource interface {
	Load(ctx context.Context) ([]domain.Song, error)
}

// ObservationStore persists dated statistics readings. Append is append-only;
// Latest returns the most recent observation per video ID.
type ObservationStore interface {
	Append(ctx context.Context, obs domain.Observation) error
	Latest(ctx context.Context) (map[string]domain.Observation, error)
}
