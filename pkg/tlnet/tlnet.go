// Package tlnet builds the URLs of TeX Live network repositories.
package tlnet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

const (
	ctanPath     = "systems/texlive/tlnet/"
	contribPath  = "systems/texlive/tlcontrib/"
	versionToken = "{version}"
)

// Historic archive hosts.
const (
	HistoricMaster  = "https://ftp.math.utah.edu/pub/tex/historic/"
	HistoricDefault = "https://mirrors.tuna.tsinghua.edu.cn/tex-historic-archive/"
)

// Pretest repositories.
const (
	PretestMaster  = "https://ftp.math.utah.edu/pub/tlpretest/"
	PretestDefault = "https://mirror.ctan.org/systems/texlive/tlpretest/"
)

type template struct {
	path       string
	constraint string
}

// historicTemplates is ordered newest first; the first matching entry wins.
var historicTemplates = []template{
	{path: "systems/texlive/{version}/tlnet-final/", constraint: ">=2010"},
	{path: "systems/texlive/{version}/tlnet/", constraint: ">=2009, <2010"},
	{path: "systems/texlive/{version}/tlnet/{version}/", constraint: ">=2008, <2009"},
}

// MirrorResolver resolves a CTAN mirror root. *mirror.Resolver satisfies it.
type MirrorResolver interface {
	Resolve(ctx context.Context, master bool) (*url.URL, error)
}

// CTAN returns the tlnet repository of the current release on a CTAN mirror.
func CTAN(ctx context.Context, r MirrorResolver, master bool) (*url.URL, error) {
	base, err := r.Resolve(ctx, master)
	if err != nil {
		return nil, err
	}
	return base.JoinPath(ctanPath), nil
}

// Contrib returns the tlcontrib repository on a CTAN mirror.
func Contrib(ctx context.Context, r MirrorResolver, master bool) (*url.URL, error) {
	base, err := r.Resolve(ctx, master)
	if err != nil {
		return nil, err
	}
	return base.JoinPath(contribPath), nil
}

// Historic returns the archived repository of a past release.
func Historic(v versions.Version, master bool) (*url.URL, error) {
	if v.IsLatest() {
		return nil, fmt.Errorf("no historic repository for %q", v)
	}
	for _, tmpl := range historicTemplates {
		ok, err := v.Satisfies(tmpl.constraint)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		base := HistoricDefault
		if master {
			base = HistoricMaster
		}
		return url.Parse(base + strings.ReplaceAll(tmpl.path, versionToken, v.String()))
	}
	return nil, fmt.Errorf("no historic repository for %s: %w", v, versions.ErrInvalidVersion)
}

// Pretest returns the pretest repository.
func Pretest(master bool) *url.URL {
	s := PretestDefault
	if master {
		s = PretestMaster
	}
	u, _ := url.Parse(s)
	return u
}

// VersionFile returns the release marker file of v in repo.
func VersionFile(repo *url.URL, v versions.Version) *url.URL {
	return repo.JoinPath("tlpkg", "TEXLIVE_"+strconv.Itoa(v.Year()))
}

// HasVersion reports whether repo serves release v. Any failure to find out
// is reported as false.
func HasVersion(ctx context.Context, client http2.Doer, repo *url.URL, v versions.Version) bool {
	u := VersionFile(repo, v).String()
	log := clog.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		log.Debugf("checking %s: %v", u, err)
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debugf("checking %s: %v", u, err)
		return false
	}
	defer resp.Body.Close()

	log.Debugf("checking %s: %d", u, resp.StatusCode)
	return resp.StatusCode == http.StatusOK
}
