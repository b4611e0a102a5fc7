package utils

import (
	"context"
	"net/http"
	"time"
)

// API issues plain GET requests. Redirects are returned to the caller, not followed.
type API struct {
	client    *http.Client
	userAgent string
}

func NewAPI(timeout time.Duration, userAgent string) *API {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &API{client: client, userAgent: userAgent}
}

func (a *API) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	return a.client.Do(req)
}
