package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/adapters/echarts"
	"github.com/ewilliams-labs/chartwatch/internal/adapters/rest"
	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/services"
)

type fakeSource struct {
	songs []domain.Song
	err   error
}

func (f *fakeSource) Load(_ context.Context) ([]domain.Song, error) {
	return f.songs, f.err
}

type fakeStore struct {
	mu       sync.Mutex
	appended []domain.Observation
}

func (f *fakeStore) Append(_ context.Context, obs domain.Observation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, obs)
	return nil
}

func (f *fakeStore) Latest(_ context.Context) (map[string]domain.Observation, error) {
	return map[string]domain.Observation{}, nil
}

func (f *fakeStore) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

type fakeStats struct {
	fail map[string]bool
}

func (f *fakeStats) Fetch(_ context.Context, videoID string) (domain.Observation, error) {
	if f.fail[videoID] {
		return domain.Observation{}, errors.New("unavailable")
	}
	return domain.Observation{
		VideoID:     videoID,
		ViewCount:   100,
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func testSongs() []domain.Song {
	return []domain.Song{
		{Title: "T1", Year: 2024, VideoID: "v1", ViewsPerDay: 1000, HasViews: true, VoteTotal: 500, HasVotes: true},
		{Title: "T2", Year: 2024, VideoID: "v2", ViewsPerDay: 500, HasViews: true, VoteTotal: 500, HasVotes: true},
		{Title: "T3", Year: 2024, VideoID: "v3", ViewsPerDay: 250, HasViews: true, VoteTotal: 100, HasVotes: true},
	}
}

func newTestHandler(source *fakeSource, store *fakeStore, stats *fakeStats) *rest.Handler {
	library := services.NewLibrary(source, store, services.ViewsColumn)
	refresher := services.NewRefresher(stats, store)
	pipeline := services.PipelineConfig{CohortYear: 2024, Policy: services.PolicyMaxViews}
	chart := echarts.Options{
		Title:           "comparison",
		ViewsSeriesName: "views series",
		VotesSeriesName: "votes series",
	}
	return rest.NewHandler(library, refresher, pipeline, chart)
}

func TestHandler_HealthCheck(t *testing.T) {
	h := newTestHandler(&fakeSource{}, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestHandler_Songs(t *testing.T) {
	h := newTestHandler(&fakeSource{songs: testSongs()}, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var songs []struct {
		Title       string   `json:"title"`
		ViewsPerDay *float64 `json:"views_per_day"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&songs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("got %d songs, want 3", len(songs))
	}
	if songs[0].ViewsPerDay == nil || *songs[0].ViewsPerDay != 1000 {
		t.Errorf("views_per_day: got %v", songs[0].ViewsPerDay)
	}
}

func TestHandler_SongsSourceUnavailable(t *testing.T) {
	source := &fakeSource{err: domain.SourceUnavailableError{Path: "data.csv", Err: errors.New("gone")}}
	h := newTestHandler(source, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/songs", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rec.Code)
	}
}

func TestHandler_Chart(t *testing.T) {
	h := newTestHandler(&fakeSource{songs: testSongs()}, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "views series") || !strings.Contains(body, "votes series") {
		t.Error("rendered chart is missing the series names")
	}
}

func TestHandler_ChartErrorsAreVisible(t *testing.T) {
	// No eligible records at all: reference selection must fail loudly.
	h := newTestHandler(&fakeSource{songs: []domain.Song{
		{Title: "old", Year: 2019, ViewsPerDay: 10, HasViews: true, VoteTotal: 10, HasVotes: true},
	}}, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "reference record not found") {
		t.Errorf("error not surfaced: %q", rec.Body.String())
	}
}

func TestHandler_RefreshFlow(t *testing.T) {
	store := &fakeStore{}
	stats := &fakeStats{fail: map[string]bool{"v2": true}}
	h := newTestHandler(&fakeSource{songs: testSongs()}, store, stats)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start status: got %d, want 202", rec.Code)
	}

	var start struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&start); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if start.ID == "" {
		t.Error("expected a run id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/refresh/status", nil))

		var status struct {
			Running bool `json:"running"`
			Summary *struct {
				Updated int
				Skipped int
			} `json:"summary"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("decode status: %v", err)
		}

		if !status.Running && status.Summary != nil {
			if status.Summary.Updated != 2 || status.Summary.Skipped != 1 {
				t.Errorf("summary: got %+v", status.Summary)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("refresh did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if store.rows() != 2 {
		t.Errorf("appended rows: got %d, want 2", store.rows())
	}
}

func TestHandler_Dashboard(t *testing.T) {
	h := newTestHandler(&fakeSource{songs: testSongs()}, &fakeStore{}, &fakeStats{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Update YouTube Statistics") {
		t.Error("dashboard shell is missing the refresh action")
	}
}
