// Package csvstore provides CSV-backed implementations of the storage ports.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
)

// Catalog column names. Header whitespace is tolerated on load.
const (
	colTitle   = "Title"
	colViews   = "view per day"
	colVotes   = "Total"
	colYear    = "Year"
	colVideoID = "youtube_id"
)

// Catalog reads the song catalog from a CSV file.
type Catalog struct {
	path string
}

var _ ports.SongSource = (*Catalog)(nil)

// NewCatalog constructs a Catalog for the given file path.
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Load reads the full catalog. A missing or unreadable file yields a
// SourceUnavailableError; missing required columns yield a SchemaError.
// Blank or unparseable metric cells mark the metric absent on that row only.
func (c *Catalog) Load(_ context.Context) ([]domain.Song, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, domain.SourceUnavailableError{Path: c.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.SourceUnavailableError{Path: c.path, Err: err}
	}
	if len(rows) == 0 {
		return nil, domain.SourceUnavailableError{Path: c.path, Err: fmt.Errorf("empty file")}
	}

	idx, err := indexHeader(rows[0])
	if err != nil {
		return nil, err
	}

	songs := make([]domain.Song, 0, len(rows)-1)
	for _, row := range rows[1:] {
		songs = append(songs, rowToSong(row, idx))
	}

	return songs, nil
}

type columnIndex struct {
	title, views, votes, year, videoID int
}

// indexHeader maps trimmed column names to positions and checks the
// required set. youtube_id is optional.
func indexHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	idx := columnIndex{title: -1, views: -1, votes: -1, year: -1, videoID: -1}
	var missing []string
	for _, req := range []struct {
		name string
		dst  *int
	}{
		{colTitle, &idx.title},
		{colViews, &idx.views},
		{colVotes, &idx.votes},
		{colYear, &idx.year},
	} {
		i, ok := pos[req.name]
		if !ok {
			missing = append(missing, req.name)
			continue
		}
		*req.dst = i
	}
	if len(missing) > 0 {
		return columnIndex{}, domain.SchemaError{Missing: missing}
	}

	if i, ok := pos[colVideoID]; ok {
		idx.videoID = i
	}

	return idx, nil
}

func rowToSong(row []string, idx columnIndex) domain.Song {
	s := domain.Song{
		Title: cell(row, idx.title),
	}
	if y, err := strconv.Atoi(cell(row, idx.year)); err == nil {
		s.Year = y
	}
	if v, ok := parseMetric(cell(row, idx.views)); ok {
		s.ViewsPerDay = v
		s.HasViews = true
	}
	if v, ok := parseMetric(cell(row, idx.votes)); ok {
		s.VoteTotal = v
		s.HasVotes = true
	}
	s.VideoID = cell(row, idx.videoID)
	return s
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseMetric tolerates thousands separators.
func parseMetric(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
