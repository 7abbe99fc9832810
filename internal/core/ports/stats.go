package ports

import (
	"context"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

// StatsProvider looks up current statistics for a video identifier.
// Implementations fold not-found and transport failures into an error the
// refresh loop treats as "skip this record".
type StatsProvider interface {
	Fetch(ctx context.Context, videoID string) (domain.Observation, error)
}
