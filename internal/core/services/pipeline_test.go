package services

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
)

func song(title string, year int, views, votes float64) domain.Song {
	return domain.Song{
		Title:       title,
		Year:        year,
		ViewsPerDay: views,
		HasViews:    views != 0,
		VoteTotal:   votes,
		HasVotes:    votes != 0,
	}
}

func TestFilterCohort(t *testing.T) {
	tests := []struct {
		name       string
		songs      []domain.Song
		year       int
		wantTitles []string
	}{
		{
			name: "wrong year excluded regardless of metrics",
			songs: []domain.Song{
				song("old", 2023, 900, 400),
				song("new", 2024, 100, 100),
			},
			year:       2024,
			wantTitles: []string{"new"},
		},
		{
			name: "zero votes excluded even with positive views",
			songs: []domain.Song{
				song("no votes", 2024, 500, 0),
				song("ok", 2024, 100, 100),
			},
			year:       2024,
			wantTitles: []string{"ok"},
		},
		{
			name: "missing views excluded",
			songs: []domain.Song{
				{Title: "no views", Year: 2024, VoteTotal: 300, HasVotes: true},
				song("ok", 2024, 100, 100),
			},
			year:       2024,
			wantTitles: []string{"ok"},
		},
		{
			name: "sorted by views per day descending",
			songs: []domain.Song{
				song("mid", 2024, 500, 1),
				song("top", 2024, 1000, 1),
				song("low", 2024, 10, 1),
			},
			year:       2024,
			wantTitles: []string{"top", "mid", "low"},
		},
		{
			name: "ties keep original order",
			songs: []domain.Song{
				song("first", 2024, 500, 1),
				song("second", 2024, 500, 2),
			},
			year:       2024,
			wantTitles: []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterCohort(tt.songs, tt.year)
			titles := make([]string, len(got))
			for i, s := range got {
				titles[i] = s.Title
			}
			if !reflect.DeepEqual(titles, tt.wantTitles) {
				t.Errorf("got %v, want %v", titles, tt.wantTitles)
			}
		})
	}
}

func TestFilterCohort_Idempotent(t *testing.T) {
	songs := []domain.Song{
		song("b", 2024, 500, 100),
		song("a", 2024, 1000, 100),
		song("excluded", 2023, 900, 100),
	}

	once := FilterCohort(songs, 2024)
	twice := FilterCohort(once, 2024)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filtering twice changed the result: %v vs %v", once, twice)
	}
}

func TestFilterCohort_DoesNotMutateInput(t *testing.T) {
	songs := []domain.Song{
		song("low", 2024, 10, 1),
		song("high", 2024, 1000, 1),
	}

	FilterCohort(songs, 2024)

	if songs[0].Title != "low" || songs[1].Title != "high" {
		t.Errorf("input order changed: %v", songs)
	}
}

func TestSelectReference(t *testing.T) {
	eligible := []domain.Song{
		song("top", 2024, 1000, 500),
		song("other", 2024, 500, 500),
	}

	tests := []struct {
		name      string
		eligible  []domain.Song
		policy    ReferencePolicy
		title     string
		wantTitle string
		wantErr   bool
	}{
		{
			name:      "max views picks the first of the sorted set",
			eligible:  eligible,
			policy:    PolicyMaxViews,
			wantTitle: "top",
		},
		{
			name:      "by title picks the matching record",
			eligible:  eligible,
			policy:    PolicyByTitle,
			title:     "other",
			wantTitle: "other",
		},
		{
			name:     "by title with no match fails",
			eligible: eligible,
			policy:   PolicyByTitle,
			title:    "missing",
			wantErr:  true,
		},
		{
			name:     "max views with empty set fails",
			eligible: nil,
			policy:   PolicyMaxViews,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := SelectReference(tt.eligible, tt.policy, tt.title)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrReferenceNotFound) {
					t.Fatalf("expected ErrReferenceNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.Title != tt.wantTitle {
				t.Errorf("reference: got %q, want %q", ref.Title, tt.wantTitle)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t1 := song("T1", 2024, 1000, 500)
	t2 := song("T2", 2024, 500, 500)

	derived, err := Normalize([]domain.Song{t1, t2}, t1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref := derived[0]
	if ref.NormalizedViews != 100 || ref.NormalizedVotes != 100 || ref.ProportionDifference != 0 {
		t.Errorf("reference: got (%v, %v, %v), want (100, 100, 0)",
			ref.NormalizedViews, ref.NormalizedVotes, ref.ProportionDifference)
	}

	got := derived[1]
	if got.NormalizedViews != 50 || got.NormalizedVotes != 100 || got.ProportionDifference != -50 {
		t.Errorf("T2: got (%v, %v, %v), want (50, 100, -50)",
			got.NormalizedViews, got.NormalizedVotes, got.ProportionDifference)
	}
}

func TestNormalize_ByTitleReferenceMayExceedHundred(t *testing.T) {
	top := song("top", 2024, 1000, 200)
	ref := song("ref", 2024, 500, 400)

	derived, err := Normalize([]domain.Song{top, ref}, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if derived[0].NormalizedViews != 200 {
		t.Errorf("top normalized views: got %v, want 200", derived[0].NormalizedViews)
	}
	for _, d := range derived {
		if d.NormalizedViews < 0 || d.NormalizedVotes < 0 {
			t.Errorf("negative normalized value for %q", d.Title)
		}
	}
}

func TestNormalize_ZeroReference(t *testing.T) {
	records := []domain.Song{song("a", 2024, 100, 100)}

	if _, err := Normalize(records, song("bad", 2024, 0, 100)); !errors.Is(err, domain.ErrDivision) {
		t.Errorf("zero views: expected ErrDivision, got %v", err)
	}
	if _, err := Normalize(records, song("bad", 2024, 100, 0)); !errors.Is(err, domain.ErrDivision) {
		t.Errorf("zero votes: expected ErrDivision, got %v", err)
	}
}

func TestDerive_FullPrecisionRetained(t *testing.T) {
	songs := []domain.Song{
		song("ref", 2024, 3000, 900),
		song("third", 2024, 1000, 900),
	}

	derived, err := Derive(songs, PipelineConfig{CohortYear: 2024, Policy: PolicyMaxViews})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 100.0 / 3.0
	if math.Abs(derived[1].NormalizedViews-want) > 1e-9 {
		t.Errorf("normalized views: got %v, want %v (full precision)", derived[1].NormalizedViews, want)
	}
}
