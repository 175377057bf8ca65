package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfi-dev/setup-texlive/pkg/action"
	"github.com/wolfi-dev/setup-texlive/pkg/cache"
	"github.com/wolfi-dev/setup-texlive/pkg/config"
	"github.com/wolfi-dev/setup-texlive/pkg/mirror"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/runner"
	"github.com/wolfi-dev/setup-texlive/pkg/tar"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

type fakeRunner struct {
	cmds  []runner.Cmd
	onRun func(runner.Cmd) (runner.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Cmd) (runner.Result, error) {
	f.cmds = append(f.cmds, cmd)
	if f.onRun != nil {
		return f.onRun(cmd)
	}
	return runner.Result{}, nil
}

func (f *fakeRunner) args() []string {
	var out []string
	for _, c := range f.cmds {
		out = append(out, filepath.Base(c.Name)+" "+strings.Join(c.Args, " "))
	}
	return out
}

// stepOutput returns the value of the single-line step output name.
func stepOutput(t *testing.T, file, name string) string {
	t.Helper()
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(string(b), "\n")
	for i, l := range lines {
		if v, ok := strings.CutPrefix(l, name+"="); ok {
			return v
		}
		if strings.HasPrefix(l, name+"<<") && i+1 < len(lines) {
			return lines[i+1]
		}
	}
	t.Fatalf("no output %s in %q", name, b)
	return ""
}

func testSetup(t *testing.T, cfg *config.Config) (*setup, *fakeRunner) {
	t.Helper()
	dir := t.TempDir()
	r := &fakeRunner{}
	cfg.Prefix = filepath.Join(dir, "texlive")
	return &setup{
		cfg:      cfg,
		platform: release.Platform{OS: "linux", Arch: "amd64"},
		releases: release.New(nil),
		mirrors:  mirror.New(),
		runner:   r,
		cache:    cache.NewFS(filepath.Join(dir, "cache")),
		action: action.Commands{
			OutputFile: filepath.Join(dir, "output"),
			PathFile:   filepath.Join(dir, "path"),
		},
	}, r
}

// installerRepository serves an install-tl archive for year.
func installerRepository(t *testing.T, year string) *url.URL {
	t.Helper()
	src := t.TempDir()
	dir := filepath.Join(src, "install-tl-20260301")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release-texlive.txt"), []byte("TeX Live version "+year+"\n"), 0o644))
	var buf bytes.Buffer
	require.NoError(t, tar.Tar(&buf, src))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/install-tl-unx.tar.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	return u
}

func TestSetup_Install(t *testing.T) {
	repo := installerRepository(t, "2026")
	s, r := testSetup(t, &config.Config{
		Version:    versions.MustParse("latest"),
		Repository: repo,
		Cache:      true,
		Packages:   []string{"amsmath", "hyperref"},
	})

	texdir := filepath.Join(s.cfg.Prefix, "2026")
	r.onRun = func(runner.Cmd) (runner.Result, error) {
		return runner.Result{}, os.MkdirAll(filepath.Join(texdir, "tlpkg"), 0o755)
	}

	require.NoError(t, s.run(context.Background()))

	got := r.args()
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "install-tl -no-gui -profile "))
	assert.True(t, strings.HasSuffix(got[0], "-repository "+repo.String()))
	assert.Equal(t, "tlmgr install amsmath hyperref", got[1])

	p, err := os.ReadFile(s.action.PathFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(texdir, "bin", "x86_64-linux")+"\n", string(p))

	assert.Equal(t, "2026", stepOutput(t, s.action.OutputFile, "version"))
	assert.Equal(t, "false", stepOutput(t, s.action.OutputFile, "cache-hit"))

	key, _ := cache.Key("x86_64-linux", versions.MustParse("2026"), []string{"amsmath", "hyperref"})
	assert.FileExists(t, filepath.Join(filepath.Dir(s.action.OutputFile), "cache", key+".tar.gz"))
}

func TestSetup_CacheHit(t *testing.T) {
	s, r := testSetup(t, &config.Config{
		Version:           versions.MustParse("2026"),
		Cache:             true,
		UpdateAllPackages: true,
	})

	saved := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(saved, "tlpkg"), 0o755))
	key, _ := cache.Key("x86_64-linux", versions.MustParse("2026"), nil)
	require.NoError(t, s.cache.Save(context.Background(), key, saved))

	require.NoError(t, s.run(context.Background()))
	texdir := filepath.Join(s.cfg.Prefix, "2026")
	assert.Equal(t, []string{
		"tlmgr conf texmf TEXMFLOCAL " + filepath.Join(s.cfg.Prefix, "texmf-local"),
		"tlmgr conf texmf TEXMFSYSCONFIG " + filepath.Join(texdir, "texmf-config"),
		"tlmgr conf texmf TEXMFSYSVAR " + filepath.Join(texdir, "texmf-var"),
		"tlmgr update --self --all --reinstall-forcibly-removed",
	}, r.args())

	assert.Equal(t, "true", stepOutput(t, s.action.OutputFile, "cache-hit"))
}

// restorePartial caches an installation of v without packages, so that any
// request with packages restores it under the restore key.
func restorePartial(t *testing.T, s *setup, v string) {
	t.Helper()
	saved := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(saved, "tlpkg"), 0o755))
	key, _ := cache.Key("x86_64-linux", versions.MustParse(v), nil)
	require.NoError(t, s.cache.Save(context.Background(), key, saved))
}

func checksumMismatch(cmd runner.Cmd) (runner.Result, error) {
	res := runner.Result{
		ExitCode: 1,
		Stderr:   "tlmgr: checksums differ for amsmath:\ntlmgr: TLPOBJ=abc, file=def",
	}
	return res, &runner.ExitError{Cmd: cmd.Name, Result: res}
}

func TestSetup_ChecksumMismatchRetriesMaster(t *testing.T) {
	master, err := url.Parse("https://master.example.com/ctan/")
	require.NoError(t, err)
	s, r := testSetup(t, &config.Config{
		Version:  versions.MustParse("2026"),
		Cache:    true,
		Packages: []string{"amsmath"},
	})
	s.mirrors = mirror.New(mirror.WithMaster(master))
	restorePartial(t, s, "2026")

	installs := 0
	r.onRun = func(cmd runner.Cmd) (runner.Result, error) {
		if cmd.Args[0] != "install" {
			return runner.Result{}, nil
		}
		installs++
		if installs == 1 {
			return checksumMismatch(cmd)
		}
		return runner.Result{}, nil
	}

	require.NoError(t, s.run(context.Background()))
	got := r.args()
	require.Len(t, got, 7)
	assert.Equal(t, []string{
		"tlmgr update --self",
		"tlmgr install amsmath",
		"tlmgr option repository https://master.example.com/ctan/systems/texlive/tlnet/",
		"tlmgr install amsmath",
	}, got[3:])
}

func TestSetup_ChecksumMismatch(t *testing.T) {
	for _, tt := range []struct {
		name    string
		version string
		repo    string
		want    []string
	}{{
		name:    "retry fails too",
		version: "2026",
		want: []string{
			"tlmgr install amsmath",
			"tlmgr option repository " + mirror.DefaultMaster + "systems/texlive/tlnet/",
			"tlmgr install amsmath",
		},
	}, {
		name:    "explicit repository",
		version: "2026",
		repo:    "https://example.com/tlnet/",
		want:    []string{"tlmgr install amsmath"},
	}, {
		name:    "historic release",
		version: "2020",
		want:    []string{"tlmgr install amsmath"},
	}} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Version:  versions.MustParse(tt.version),
				Cache:    true,
				Packages: []string{"amsmath"},
			}
			if tt.repo != "" {
				u, err := url.Parse(tt.repo)
				require.NoError(t, err)
				cfg.Repository = u
			}
			s, r := testSetup(t, cfg)
			restorePartial(t, s, tt.version)
			r.onRun = func(cmd runner.Cmd) (runner.Result, error) {
				if cmd.Args[0] == "install" {
					return checksumMismatch(cmd)
				}
				return runner.Result{}, nil
			}

			err := s.run(context.Background())
			assert.Equal(t, tlerr.PackageChecksumMismatch, tlerr.CodeOf(err))
			got := r.args()
			assert.Equal(t, tt.want, got[len(got)-len(tt.want):])
		})
	}
}

func TestSetup_UnsupportedVersion(t *testing.T) {
	s, r := testSetup(t, &config.Config{Version: versions.MustParse("2007")})

	err := s.run(context.Background())
	assert.ErrorIs(t, err, release.ErrUnsupportedVersion)
	assert.Empty(t, r.cmds)
}
