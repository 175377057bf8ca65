package http

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Doer sends an HTTP request. *http.Client and *RLHTTPClient satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RLHTTPClient is a rate limited HTTP client.
type RLHTTPClient struct {
	Client      *http.Client
	Ratelimiter *rate.Limiter
}

// Do sends an HTTP request.
func (c *RLHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.Ratelimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.Client.Do(req)
}

// NewClient returns a rate limited http client.
func NewClient(rl *rate.Limiter) *RLHTTPClient {
	return &RLHTTPClient{
		Client:      http.DefaultClient,
		Ratelimiter: rl,
	}
}

// NewPacedClient returns a client that sends its first request immediately
// and waits at least interval between any two subsequent requests. Redirects
// are not followed.
func NewPacedClient(client *http.Client, interval time.Duration) *RLHTTPClient {
	return &RLHTTPClient{
		Client:      NoRedirect(client),
		Ratelimiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// NoRedirect returns a shallow copy of client that hands 3xx responses back
// to the caller instead of following them.
func NoRedirect(client *http.Client) *http.Client {
	if client == nil {
		client = http.DefaultClient
	}
	c := *client
	c.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

// IsRedirect reports whether code is one of the redirect statuses a mirror
// redirector may answer with.
func IsRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// ErrStatus is wrapped by errors reporting an unexpected response status.
var ErrStatus = errors.New("unexpected http status")
