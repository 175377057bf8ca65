// Package release knows which TeX Live releases exist and which of them can
// be installed on a platform.
package release

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
	"gopkg.in/yaml.v3"
)

// Oldest is the oldest release that can be installed.
const Oldest = 2008

//go:embed releases.yaml
var releasesYAML []byte

var (
	// ErrUnsupportedVersion is returned for releases that are too old or
	// not yet published.
	ErrUnsupportedVersion = errors.New("unsupported TeX Live version")
)

// Info describes a single release.
type Info struct {
	Version versions.Version `yaml:"version"`
	Date    time.Time        `yaml:"date"`
}

// Latest describes the releases around the current one.
type Latest struct {
	Previous Info `yaml:"previous"`
	Current  Info `yaml:"current"`
	Next     Info `yaml:"next"`
}

// Channel is the kind of repository a release is installed from.
type Channel int

const (
	// Current releases are installed from CTAN mirrors.
	Current Channel = iota
	// Historic releases are installed from the historic archive.
	Historic
	// Pretest releases are installed from the pretest repository.
	Pretest
)

func (c Channel) String() string {
	switch c {
	case Current:
		return "current"
	case Historic:
		return "historic"
	case Pretest:
		return "pretest"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Channel returns the channel release v is distributed through. v must not
// be "latest".
func (l Latest) Channel(v versions.Version) Channel {
	switch {
	case v.LessThan(l.Current.Version):
		return Historic
	case v.GreaterThan(l.Current.Version):
		return Pretest
	default:
		return Current
	}
}

// shift makes v the current release.
func (l Latest) shift(v versions.Version) Latest {
	if v.Equal(l.Next.Version) {
		return Latest{
			Previous: l.Current,
			Current:  l.Next,
			Next:     Info{Version: v.Next(), Date: l.Next.Date.AddDate(1, 0, 0)},
		}
	}
	return Latest{
		Previous: Info{Version: versions.FromYear(v.Year() - 1)},
		Current:  Info{Version: v},
		Next:     Info{Version: v.Next()},
	}
}

// Source reports the current release as published upstream.
// *ctan.Client satisfies it.
type Source interface {
	TeXLiveRelease(ctx context.Context) (string, error)
}

// Releases provides release metadata. The metadata is computed once and
// then reused for the lifetime of the Releases value.
type Releases struct {
	source Source
	now    func() time.Time
	data   []byte

	latest *Latest
}

// Option configures Releases.
type Option func(*Releases)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Releases) {
		r.now = now
	}
}

// WithData replaces the embedded release data.
func WithData(data []byte) Option {
	return func(r *Releases) {
		r.data = data
	}
}

// New returns Releases that consults source once the next release is due.
func New(source Source, opts ...Option) *Releases {
	r := &Releases{
		source: source,
		now:    time.Now,
		data:   releasesYAML,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset forgets the computed metadata.
func (r *Releases) Reset() {
	r.latest = nil
}

// Latest returns the release metadata. Upstream is only consulted when the
// expected date of the next release has passed; failing to reach it is
// logged and the known data is used.
func (r *Releases) Latest(ctx context.Context) (Latest, error) {
	if r.latest != nil {
		return *r.latest, nil
	}

	var l Latest
	if err := yaml.Unmarshal(r.data, &l); err != nil {
		return Latest{}, fmt.Errorf("parsing release data: %w", err)
	}

	log := clog.FromContext(ctx)
	if r.source != nil && !r.now().Before(l.Next.Date) {
		log.Infof("TeX Live %s was due on %s, checking for a new release", l.Next.Version, l.Next.Date.Format(time.DateOnly))
		if upstream, err := r.upstream(ctx); err != nil {
			log.Warnf("failed to check for a new release: %v", err)
		} else if upstream.GreaterThan(l.Current.Version) {
			log.Infof("new TeX Live release found: %s", upstream)
			l = l.shift(upstream)
		}
	}

	r.latest = &l
	return l, nil
}

func (r *Releases) upstream(ctx context.Context) (versions.Version, error) {
	s, err := r.source.TeXLiveRelease(ctx)
	if err != nil {
		return versions.Version{}, err
	}
	v, err := versions.NewVersion(s)
	if err != nil {
		return versions.Version{}, err
	}
	if v.IsLatest() {
		return versions.Version{}, fmt.Errorf("upstream reported %q: %w", s, versions.ErrInvalidVersion)
	}
	return v, nil
}

// Validate resolves "latest" and checks that v can be installed on p. The
// next, unreleased version is accepted and distributed through the pretest
// channel.
func (r *Releases) Validate(ctx context.Context, v versions.Version, p Platform) (versions.Version, Channel, error) {
	l, err := r.Latest(ctx)
	if err != nil {
		return versions.Version{}, 0, err
	}
	resolved := v.Resolve(l.Current.Version)

	if resolved.Year() < Oldest {
		return versions.Version{}, 0, fmt.Errorf("%w: %s is older than %d", ErrUnsupportedVersion, resolved, Oldest)
	}
	if resolved.GreaterThan(l.Next.Version) {
		return versions.Version{}, 0, fmt.Errorf("%w: %s is newer than the latest release %s", ErrUnsupportedVersion, resolved, l.Current.Version)
	}
	if err := p.Supports(resolved); err != nil {
		return versions.Version{}, 0, err
	}
	return resolved, l.Channel(resolved), nil
}
