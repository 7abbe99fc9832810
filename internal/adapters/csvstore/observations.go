package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
)

var observationHeader = []string{"youtube_id", "title", "view_count", "published_at", "observed_at"}

// ObservationLog is an append-only CSV observation store. Each refresh
// appends a dated row; Latest picks the most recent row per video.
type ObservationLog struct {
	path string
}

var _ ports.ObservationStore = (*ObservationLog)(nil)

// NewObservationLog constructs an ObservationLog for the given file path.
// The file is created with a header on first append.
func NewObservationLog(path string) *ObservationLog {
	return &ObservationLog{path: path}
}

// Append writes one observation row.
func (l *ObservationLog) Append(_ context.Context, obs domain.Observation) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvstore adapter: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csvstore adapter: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(observationHeader); err != nil {
			return fmt.Errorf("csvstore adapter: %w", err)
		}
	}

	row := []string{
		obs.VideoID,
		obs.Title,
		strconv.FormatInt(obs.ViewCount, 10),
		obs.PublishedAt.Format("2006-01-02"),
		obs.ObservedAt.Format(time.RFC3339),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("csvstore adapter: %w", err)
	}

	w.Flush()
	return w.Error()
}

// Latest returns the most recent observation per video ID. A missing file is
// an empty store, not an error.
func (l *ObservationLog) Latest(_ context.Context) (map[string]domain.Observation, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.Observation{}, nil
		}
		return nil, domain.SourceUnavailableError{Path: l.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.SourceUnavailableError{Path: l.path, Err: err}
	}

	latest := make(map[string]domain.Observation)
	for i, row := range rows {
		if i == 0 || len(row) < len(observationHeader) {
			continue
		}
		obs, err := rowToObservation(row)
		if err != nil {
			continue
		}
		if prev, ok := latest[obs.VideoID]; !ok || obs.ObservedAt.After(prev.ObservedAt) {
			latest[obs.VideoID] = obs
		}
	}

	return latest, nil
}

func rowToObservation(row []string) (domain.Observation, error) {
	views, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return domain.Observation{}, err
	}
	published, err := time.Parse("2006-01-02", row[3])
	if err != nil {
		return domain.Observation{}, err
	}
	observed, err := time.Parse(time.RFC3339, row[4])
	if err != nil {
		return domain.Observation{}, err
	}
	return domain.Observation{
		VideoID:     row[0],
		Title:       row[1],
		ViewCount:   views,
		PublishedAt: published,
		ObservedAt:  observed,
	}, nil
}
