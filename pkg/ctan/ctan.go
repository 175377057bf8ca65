// Package ctan is a client for the CTAN JSON API.
package ctan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
)

const defaultBaseURL = "https://ctan.org/json/2.0"

// Pkg is the subset of the package endpoint's response used here.
type Pkg struct {
	Version *PkgVersion `json:"version,omitempty"`
	TeXLive string      `json:"texlive,omitempty"`
}

type PkgVersion struct {
	Number string `json:"number,omitempty"`
}

// Client queries the CTAN JSON API.
type Client struct {
	baseURL string
	client  *retryablehttp.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client.HTTPClient = hc
	}
}

// WithRetries sets the retry budget and the maximum wait between attempts.
func WithRetries(n int, wait time.Duration) ClientOption {
	return func(c *Client) {
		c.client.RetryMax = n
		c.client.RetryWaitMin = wait
		c.client.RetryWaitMax = wait
	}
}

// New returns a Client for https://ctan.org.
func New(opts ...ClientOption) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	c := &Client{
		baseURL: defaultBaseURL,
		client:  rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Package fetches the metadata of a CTAN package.
func (c *Client) Package(ctx context.Context, name string) (*Pkg, error) {
	targetURL := fmt.Sprintf("%s/pkg/%s", c.baseURL, url.PathEscape(name))
	clog.FromContext(ctx).Debugf("GET %s", targetURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating GET request %s", targetURL)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed getting URI %s", targetURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s answered %d", http2.ErrStatus, targetURL, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading CTAN API response")
	}
	var pkg Pkg
	if err := json.Unmarshal(b, &pkg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling CTAN package data")
	}
	return &pkg, nil
}

// TeXLiveRelease returns the release number of the current TeX Live as
// published on CTAN.
func (c *Client) TeXLiveRelease(ctx context.Context) (string, error) {
	pkg, err := c.Package(ctx, "texlive")
	if err != nil {
		return "", err
	}
	if pkg.Version == nil || pkg.Version.Number == "" {
		return "", errors.New("CTAN API response has no version number for texlive")
	}
	return pkg.Version.Number, nil
}
