// Package youtube implements the stats provider port against the YouTube
// Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ewilliams-labs/chartwatch/internal/core/domain"
	"github.com/ewilliams-labs/chartwatch/internal/core/ports"
)

// DefaultBaseURL is the production Data API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrVideoNotFound indicates the API returned no item for the identifier.
// Callers fold it into a skip, the same as transport failures.
var ErrVideoNotFound = errors.New("video not found")

// Client is an HTTP client for the YouTube adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      *memoCache
}

// compile-time interface assertion
var _ ports.StatsProvider = (*Client)(nil)

// NewClient constructs a YouTube client. cacheTTL bounds how long a lookup
// result is reused within a session; zero disables memoization.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cacheTTL time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var cache *memoCache
	if cacheTTL > 0 {
		cache = newMemoCache(cacheTTL)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cache:      cache,
	}
}

// Fetch retrieves view count and publish date for a video and maps them to a
// domain.Observation. Not-found is ErrVideoNotFound; transport and decode
// failures are wrapped errors. Both mean "skip" to the refresh loop.
func (c *Client) Fetch(ctx context.Context, videoID string) (domain.Observation, error) {
	if obs, ok := c.cache.get(videoID); ok {
		return obs, nil
	}

	q := url.Values{}
	q.Set("part", "statistics,snippet")
	q.Set("id", videoID)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/videos?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %q: %w", videoID, ErrVideoNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Observation{}, fmt.Errorf("youtube adapter: status %d", resp.StatusCode)
	}

	var list videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %w", err)
	}
	if len(list.Items) == 0 {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %q: %w", videoID, ErrVideoNotFound)
	}

	obs, err := list.Items[0].toDomain(videoID)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("youtube adapter: %w", err)
	}

	c.cache.put(videoID, obs)
	return obs, nil
}
