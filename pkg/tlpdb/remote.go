package tlpdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chainguard-dev/clog"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
)

// RemotePath is the location of the compressed database relative to a
// tlnet repository.
const RemotePath = "tlpkg/texlive.tlpdb.xz"

// Fetch downloads and decompresses the package database of a repository.
func Fetch(ctx context.Context, client http2.Doer, repo *url.URL) (string, error) {
	u := repo.JoinPath(RemotePath).String()
	clog.FromContext(ctx).Debugf("fetching %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed creating GET request %s", u)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed getting URI %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("non ok http response for URI %s code: %v", u, resp.StatusCode)
	}

	r, err := xz.NewReader(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "opening xz stream")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "decompressing package database")
	}
	return string(b), nil
}

// RemoteRelease fetches a repository's database and returns the release
// year it serves.
func RemoteRelease(ctx context.Context, client http2.Doer, repo *url.URL) (string, error) {
	text, err := Fetch(ctx, client, repo)
	if err != nil {
		return "", err
	}
	release := Release(text)
	if release == "" {
		return "", fmt.Errorf("no release declared by %s", repo)
	}
	return release, nil
}
