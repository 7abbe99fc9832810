package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

func writeCatalog(t *testing.T, content string) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return NewCatalog(path)
}

func TestCatalog_Load(t *testing.T) {
	c := writeCatalog(t, ""+
		"Title, view per day ,Total,Year,youtube_id\n"+
		"披星戴月的想你,34481,438,2024,vid-1\n"+
		"疊疊樂,\"12,345\",200,2024,\n"+
		"缺票數,1000,,2024,vid-3\n")

	songs, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("got %d songs, want 3", len(songs))
	}

	first := songs[0]
	if first.Title != "披星戴月的想你" || first.Year != 2024 || first.VideoID != "vid-1" {
		t.Errorf("first row mismatch: %+v", first)
	}
	if !first.HasViews || first.ViewsPerDay != 34481 {
		t.Errorf("views: %+v", first)
	}
	if !first.HasVotes || first.VoteTotal != 438 {
		t.Errorf("votes: %+v", first)
	}

	if songs[1].ViewsPerDay != 12345 {
		t.Errorf("thousands separator: got %v, want 12345", songs[1].ViewsPerDay)
	}

	// Blank cell marks the metric absent on that row only.
	if songs[2].HasVotes {
		t.Errorf("blank votes cell should be absent: %+v", songs[2])
	}
	if !songs[2].HasViews {
		t.Errorf("views should still be present: %+v", songs[2])
	}
}

func TestCatalog_MissingColumnsIsSchemaError(t *testing.T) {
	c := writeCatalog(t, "Title,Total,Year\na,1,2024\n")

	_, err := c.Load(context.Background())
	if !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}

	var schemaErr domain.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %T", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "view per day" {
		t.Errorf("missing columns: got %v", schemaErr.Missing)
	}
}

func TestCatalog_OptionalVideoIDColumn(t *testing.T) {
	c := writeCatalog(t, "Title,view per day,Total,Year\na,100,50,2024\n")

	songs, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if songs[0].VideoID != "" {
		t.Errorf("video id: got %q, want empty", songs[0].VideoID)
	}
}

func TestCatalog_MissingFileIsSourceUnavailable(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope.csv"))

	_, err := c.Load(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
