// Package mirror resolves a CTAN mirror through the mirror.ctan.org
// redirector.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
)

const (
	DefaultRedirector  = "https://mirror.ctan.org/"
	DefaultMaster      = "https://ftp.math.utah.edu/pub/ctan/"
	DefaultMaxAttempts = 10
	DefaultBackoff     = 500 * time.Millisecond
)

// DefaultDenylist lists hostname fragments of mirrors known to serve
// packages with mismatched checksums.
var DefaultDenylist = []string{"cicku"}

var (
	// ErrResolution is wrapped by every error returned from Resolve.
	ErrResolution = errors.New("failed to resolve a CTAN mirror")

	// ErrNoSuitableMirror is returned when every candidate offered by the
	// redirector was denylisted.
	ErrNoSuitableMirror = errors.New("no suitable mirror found")
)

// Resolver resolves and remembers a CTAN mirror. A Resolver is not safe for
// concurrent use.
type Resolver struct {
	client      *http.Client
	redirector  string
	master      *url.URL
	denylist    []string
	maxAttempts int
	backoff     time.Duration

	resolved *url.URL
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClient sets the HTTP client used for probing.
func WithClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithRedirector overrides the mirror redirector endpoint.
func WithRedirector(u string) Option {
	return func(r *Resolver) {
		r.redirector = u
	}
}

// WithMaster overrides the master mirror.
func WithMaster(u *url.URL) Option {
	return func(r *Resolver) {
		r.master = withTrailingSlash(u)
	}
}

// WithDenylist replaces the hostname fragments of mirrors to avoid.
func WithDenylist(patterns ...string) Option {
	return func(r *Resolver) {
		r.denylist = patterns
	}
}

// WithMaxAttempts bounds the number of redirector requests.
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		r.maxAttempts = n
	}
}

// WithBackoff sets the delay between two redirector requests.
func WithBackoff(d time.Duration) Option {
	return func(r *Resolver) {
		r.backoff = d
	}
}

// New returns a Resolver with default settings, modified by opts.
func New(opts ...Option) *Resolver {
	master, _ := url.Parse(DefaultMaster)
	r := &Resolver{
		client:      http.DefaultClient,
		redirector:  DefaultRedirector,
		master:      master,
		denylist:    DefaultDenylist,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Master returns the master mirror.
func (r *Resolver) Master() *url.URL {
	return clone(r.master)
}

// Resolve returns a CTAN mirror. With master set, the master mirror is
// returned without any network access. Otherwise the first successfully
// resolved mirror is remembered and returned by every later call.
func (r *Resolver) Resolve(ctx context.Context, master bool) (*url.URL, error) {
	if master {
		return r.Master(), nil
	}
	if r.resolved != nil {
		return clone(r.resolved), nil
	}

	u, err := r.ask(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	clog.FromContext(ctx).Infof("resolved CTAN mirror: %s", u)
	r.resolved = u
	return clone(u), nil
}

// Reset forgets the resolved mirror.
func (r *Resolver) Reset() {
	r.resolved = nil
}

// Override pins the resolved mirror to u.
func (r *Resolver) Override(u *url.URL) {
	r.resolved = withTrailingSlash(u)
}

func (r *Resolver) ask(ctx context.Context) (*url.URL, error) {
	log := clog.FromContext(ctx)
	client := http2.NewPacedClient(r.client, r.backoff)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		candidate, err := r.head(ctx, client)
		if err != nil {
			return nil, err
		}
		if pattern, denied := r.denied(candidate); denied {
			log.Debugf("attempt %d: skipping mirror %s (matches %q)", attempt, candidate, pattern)
			continue
		}
		return candidate, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrNoSuitableMirror, r.maxAttempts)
}

func (r *Resolver) head(ctx context.Context, client http2.Doer) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.redirector, nil)
	if err != nil {
		return nil, fmt.Errorf("creating HEAD request %s: %w", r.redirector, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", r.redirector, err)
	}
	defer resp.Body.Close()

	if !http2.IsRedirect(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %s answered %d", http2.ErrStatus, r.redirector, resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("%s answered %d without a Location header", r.redirector, resp.StatusCode)
	}
	u, err := resp.Request.URL.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror location %q: %w", location, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror location %q", location)
	}
	return withTrailingSlash(u), nil
}

func (r *Resolver) denied(u *url.URL) (string, bool) {
	host := u.Hostname()
	for _, pattern := range r.denylist {
		if pattern != "" && strings.Contains(host, pattern) {
			return pattern, true
		}
	}
	return "", false
}

func withTrailingSlash(u *url.URL) *url.URL {
	c := clone(u)
	if !strings.HasSuffix(c.Path, "/") {
		c.Path += "/"
	}
	return c
}

func clone(u *url.URL) *url.URL {
	c := *u
	return &c
}
