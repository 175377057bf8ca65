package install

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/chainguard-dev/clog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/wolfi-dev/setup-texlive/pkg/internal/logtest"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/tlnet"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

type fakeMirrors struct{}

func (fakeMirrors) Resolve(_ context.Context, master bool) (*url.URL, error) {
	if master {
		return url.Parse("https://master.example/")
	}
	return url.Parse("https://mirror.example/")
}

// fakeInstallation fails the first len(errs) attempts with errs in turn.
type fakeInstallation struct {
	errs  []error
	calls []Options
}

func (f *fakeInstallation) Install(_ context.Context, opts Options) error {
	f.calls = append(f.calls, opts)
	if n := len(f.calls) - 1; n < len(f.errs) {
		return f.errs[n]
	}
	return nil
}

func incompatible() error {
	return &tlerr.Error{Code: tlerr.IncompatibleRepositoryVersion, Version: "2024", RemoteVersion: "2023"}
}

func repos(calls []Options) []string {
	var out []string
	for _, c := range calls {
		out = append(out, c.Repository.String())
	}
	return out
}

func TestRun_LatestFallsBackOnce(t *testing.T) {
	rec := &logtest.Recorder{}
	ctx := clog.WithLogger(context.Background(), clog.New(rec))
	inst := &fakeInstallation{errs: []error{incompatible()}}
	o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}}

	res, err := o.Run(ctx, Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true, Prefix: "/opt/texlive"})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "https://master.example/systems/texlive/tlnet/", res.Repository.String())
	assert.Equal(t, []string{
		"https://mirror.example/systems/texlive/tlnet/",
		"https://master.example/systems/texlive/tlnet/",
	}, repos(inst.calls))
	assert.Len(t, rec.Messages(slog.LevelWarn), 1)
}

func TestRun_RecoverableCodes(t *testing.T) {
	for _, code := range []tlerr.Code{
		tlerr.FailedToDownload,
		tlerr.UnexpectedVersion,
		tlerr.IncompatibleRepositoryVersion,
		tlerr.TLPDBFailedToInitialize,
	} {
		t.Run(code.String(), func(t *testing.T) {
			inst := &fakeInstallation{errs: []error{&tlerr.Error{Code: code}}}
			o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}}

			_, err := o.Run(context.Background(), Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true})
			require.NoError(t, err)
			assert.Len(t, inst.calls, 2)
		})
	}
}

func TestRun_SecondFailurePropagates(t *testing.T) {
	second := &tlerr.Error{Code: tlerr.FailedToDownload}
	inst := &fakeInstallation{errs: []error{incompatible(), second}}
	o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}}

	_, err := o.Run(context.Background(), Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true})
	assert.Equal(t, second, err)
	assert.Len(t, inst.calls, 2)
}

func TestRun_NoFallback(t *testing.T) {
	explicit, _ := url.Parse("https://example.com/tlnet/")

	for _, tt := range []struct {
		name string
		req  Request
		err  error
	}{{
		name: "historic",
		req:  Request{Version: versions.MustParse("2021"), Channel: release.Historic},
		err:  incompatible(),
	}, {
		name: "explicit repository",
		req:  Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true, Repository: explicit},
		err:  incompatible(),
	}, {
		name: "pinned current year",
		req:  Request{Version: versions.MustParse("2024"), Channel: release.Current},
		err:  incompatible(),
	}, {
		name: "unrecoverable code",
		req:  Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true},
		err:  &tlerr.Error{Code: tlerr.PackageChecksumMismatch},
	}, {
		name: "uncoded",
		req:  Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true},
		err:  errors.New("boom"),
	}} {
		t.Run(tt.name, func(t *testing.T) {
			inst := &fakeInstallation{errs: []error{tt.err}}
			o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}}

			_, err := o.Run(context.Background(), tt.req)
			assert.Equal(t, tt.err, err)
			assert.Len(t, inst.calls, 1)
		})
	}
}

func TestRun_Repository(t *testing.T) {
	explicit, _ := url.Parse("https://example.com/tlnet/")
	historic, err := tlnet.Historic(versions.MustParse("2021"), false)
	require.NoError(t, err)

	for _, tt := range []struct {
		name string
		req  Request
		want string
	}{{
		name: "current",
		req:  Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true},
		want: "https://mirror.example/systems/texlive/tlnet/",
	}, {
		name: "historic",
		req:  Request{Version: versions.MustParse("2021"), Channel: release.Historic},
		want: historic.String(),
	}, {
		name: "explicit",
		req:  Request{Version: versions.MustParse("2021"), Channel: release.Historic, Repository: explicit},
		want: explicit.String(),
	}, {
		name: "pretest",
		req:  Request{Version: versions.MustParse("2025"), Channel: release.Pretest},
		want: tlnet.PretestDefault,
	}} {
		t.Run(tt.name, func(t *testing.T) {
			inst := &fakeInstallation{}
			o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}}

			res, err := o.Run(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Repository.String())
			assert.False(t, res.Fallback)
		})
	}
}

func TestRun_PretestUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	inst := &fakeInstallation{}
	o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}, Client: &redirectClient{base: server.URL}}

	_, err := o.Run(context.Background(), Request{Version: versions.MustParse("2025"), Channel: release.Pretest})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, inst.calls)
}

func TestRun_ChecksRemoteRelease(t *testing.T) {
	served := map[string]string{
		"mirror.example": "2023",
		"master.example": "2024",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/systems/texlive/tlnet/tlpkg/texlive.tlpdb.xz", r.URL.Path)
		_, _ = w.Write(compressedTLPDB(t, served[r.Host]))
	}))
	t.Cleanup(server.Close)

	inst := &fakeInstallation{}
	o := &Orchestrator{Installer: inst, Mirrors: fakeMirrors{}, Client: &redirectClient{base: server.URL}}

	res, err := o.Run(context.Background(), Request{Version: versions.MustParse("2024"), Channel: release.Current, Latest: true})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, []string{"https://master.example/systems/texlive/tlnet/"}, repos(inst.calls))
}

// redirectClient sends every request to base, keeping the original host in
// the Host header.
type redirectClient struct {
	base string
}

func (c *redirectClient) Do(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.Host = req.URL.Host
	out.URL.Scheme = u.Scheme
	out.URL.Host = u.Host
	return http.DefaultClient.Do(out)
}

func compressedTLPDB(t *testing.T, year string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte("name 00texlive.config\ncategory ConTeXt\ndepend release/" + year + "\n\nname texlive.infra\nrevision 1\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
