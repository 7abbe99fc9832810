package youtube

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// NewHTTPClient builds the HTTP client for the adapter. With an access token
// it returns an oauth2 bearer client; otherwise a plain client. The timeout
// applies either way, as the remote call has none of its own.
func NewHTTPClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	if accessToken == "" {
		return &http.Client{Timeout: timeout}
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = timeout
	return client
}
