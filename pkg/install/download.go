package install

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/chainguard-dev/clog"
	"github.com/pkg/errors"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/tar"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

const (
	unixArchive     = "install-tl-unx.tar.gz"
	windowsArchive  = "install-tl.zip"
	releaseTextFile = "release-texlive.txt"
)

var releaseTextRe = regexp.MustCompile(`version (\d{4})`)

// Download fetches and unpacks the installer of release v from repo, and
// returns the directory containing install-tl.
func (i *Installer) Download(ctx context.Context, v versions.Version, repo *url.URL) (_ string, err error) {
	log := clog.FromContext(ctx)
	fault := func(code tlerr.Code, remote string, err error) error {
		return &tlerr.Error{Code: code, Version: v.String(), Repository: repo.String(), RemoteVersion: remote, Err: err}
	}

	archive, unpack := unixArchive, tar.Untar
	if i.Platform.OS == "windows" {
		archive, unpack = windowsArchive, tar.Unzip
	}
	u := repo.JoinPath(archive).String()
	log.Infof("downloading %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed creating GET request %s", u)
	}
	resp, err := i.Client.Do(req)
	if err != nil {
		return "", fault(tlerr.FailedToDownload, "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fault(tlerr.FailedToDownload, "", fmt.Errorf("non ok http response for URI %s code: %v", u, resp.StatusCode))
	}

	dest, err := os.MkdirTemp(i.TempDir, "install-tl-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dest)
		}
	}()
	if err := unpack(resp.Body, dest); err != nil {
		return "", fault(tlerr.FailedToDownload, "", fmt.Errorf("unpacking %s: %w", archive, err))
	}

	// The archive holds a single install-tl-YYYYMMDD directory.
	matches, err := filepath.Glob(filepath.Join(dest, "install-tl-*"))
	if err != nil || len(matches) != 1 {
		return "", fault(tlerr.FailedToDownload, "", fmt.Errorf("unexpected layout of %s", archive))
	}
	dir := matches[0]

	remote, err := installerRelease(dir)
	if err != nil {
		return "", fault(tlerr.UnexpectedVersion, "", err)
	}
	if remote != v.String() {
		return "", fault(tlerr.UnexpectedVersion, remote, fmt.Errorf("downloaded installer is for TeX Live %s", remote))
	}
	return dir, nil
}

func installerRelease(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, releaseTextFile))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", releaseTextFile, err)
	}
	m := releaseTextRe.FindSubmatch(b)
	if m == nil {
		return "", fmt.Errorf("no version in %s", releaseTextFile)
	}
	return string(m[1]), nil
}

// executable returns the install-tl entry point for p.
func executable(dir string, p release.Platform) string {
	if p.OS == "windows" {
		return filepath.Join(dir, "install-tl-windows.bat")
	}
	return filepath.Join(dir, "install-tl")
}
