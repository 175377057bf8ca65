package install

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/hako/durafmt"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
	"github.com/wolfi-dev/setup-texlive/pkg/internal/errorhelpers"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/tlnet"
	"github.com/wolfi-dev/setup-texlive/pkg/tlpdb"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

// ErrUnavailable is returned when the pretest repository does not publish
// the requested release yet.
var ErrUnavailable = errors.New("release not published")

// Installation performs one installation attempt. *Installer satisfies it.
type Installation interface {
	Install(ctx context.Context, opts Options) error
}

// Request describes what to install.
type Request struct {
	// Version is the resolved release.
	Version versions.Version
	Channel release.Channel
	// Latest is set when the caller asked for "latest" rather than a year.
	Latest bool
	// Repository overrides repository selection and disables fallback.
	Repository *url.URL
	Prefix     string
	TexDir     string
}

// Result describes a finished installation.
type Result struct {
	Repository *url.URL
	// Fallback is set when the master mirror was used after a failure.
	Fallback bool
}

// Orchestrator picks the repository for a request and installs from it.
type Orchestrator struct {
	Installer Installation
	Mirrors   tlnet.MirrorResolver
	// Client checks repositories before installing; checks are skipped when nil.
	Client http2.Doer
}

// Run installs req. When "latest" was requested and the repository was
// chosen automatically, a recoverable fault is retried exactly once against
// the master mirror.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	log := clog.FromContext(ctx)
	start := time.Now()
	defer func() {
		log.Infof("installation took %s", durafmt.Parse(time.Since(start)).LimitFirstN(2))
	}()

	fallback := req.Latest && req.Repository == nil && req.Channel == release.Current

	repo, err := o.repository(ctx, req, false)
	if err != nil {
		return Result{}, errorhelpers.LabelError("selecting repository", err)
	}

	err = o.attempt(ctx, req, repo)
	if err == nil {
		return Result{Repository: repo}, nil
	}
	if !fallback || !tlerr.Recoverable(err) {
		return Result{}, err
	}

	log.Warnf("installation from %s failed (%s), retrying with the master mirror: %v", repo, tlerr.CodeOf(err), err)
	repo, rerr := o.repository(ctx, req, true)
	if rerr != nil {
		return Result{}, errorhelpers.LabelError("selecting master repository", rerr)
	}
	if err := o.attempt(ctx, req, repo); err != nil {
		return Result{}, err
	}
	return Result{Repository: repo, Fallback: true}, nil
}

func (o *Orchestrator) attempt(ctx context.Context, req Request, repo *url.URL) error {
	if err := o.checkRepository(ctx, req, repo); err != nil {
		return err
	}
	return o.Installer.Install(ctx, Options{
		Version:    req.Version,
		Repository: repo,
		Prefix:     req.Prefix,
		TexDir:     req.TexDir,
	})
}

// checkRepository compares the release a current repository serves with
// the requested one. Failing to read the database is not fatal here;
// install-tl reports it with more detail.
func (o *Orchestrator) checkRepository(ctx context.Context, req Request, repo *url.URL) error {
	if o.Client == nil || req.Repository != nil || req.Channel != release.Current {
		return nil
	}
	remote, err := tlpdb.RemoteRelease(ctx, o.Client, repo)
	if err != nil {
		clog.FromContext(ctx).Debugf("skipping repository check: %v", err)
		return nil
	}
	if remote == req.Version.String() {
		return nil
	}
	return &tlerr.Error{
		Code:          tlerr.IncompatibleRepositoryVersion,
		Version:       req.Version.String(),
		Repository:    repo.String(),
		RemoteVersion: remote,
	}
}

func (o *Orchestrator) repository(ctx context.Context, req Request, master bool) (*url.URL, error) {
	if req.Repository != nil {
		return req.Repository, nil
	}
	switch req.Channel {
	case release.Current:
		return tlnet.CTAN(ctx, o.Mirrors, master)
	case release.Historic:
		return tlnet.Historic(req.Version, master)
	case release.Pretest:
		repo := tlnet.Pretest(master)
		if o.Client != nil && !tlnet.HasVersion(ctx, o.Client, repo, req.Version) {
			return nil, fmt.Errorf("%w: TeX Live %s is not available from %s", ErrUnavailable, req.Version, repo)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown channel %s", req.Channel)
	}
}
