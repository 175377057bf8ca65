// Package install downloads and runs install-tl, falling back to the master
// mirror when a CTAN mirror serves a broken or out of sync repository.
package install

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/runner"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

const profileName = "texlive.profile"

// Installer runs the TeX Live network installer.
type Installer struct {
	Client   http2.Doer
	Runner   runner.Runner
	Platform release.Platform
	// TempDir is where installers are unpacked; os.TempDir() when empty.
	TempDir string
}

// Options describe a single installation.
type Options struct {
	Version    versions.Version
	Repository *url.URL
	Prefix     string
	TexDir     string
}

// Install downloads install-tl from the repository and installs the
// infrastructure-only scheme into opts.TexDir.
func (i *Installer) Install(ctx context.Context, opts Options) error {
	dir, err := i.Download(ctx, opts.Version, opts.Repository)
	if err != nil {
		return err
	}
	defer os.RemoveAll(filepath.Dir(dir))

	profile := Profile{
		Version:  opts.Version,
		Platform: i.Platform,
		Prefix:   opts.Prefix,
		TexDir:   opts.TexDir,
	}
	profilePath := filepath.Join(dir, profileName)
	if err := os.WriteFile(profilePath, []byte(profile.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", profileName, err)
	}
	clog.FromContext(ctx).Debugf("%s:\n%s", profileName, profile)

	return i.run(ctx, opts, dir, profilePath)
}

func (i *Installer) run(ctx context.Context, opts Options, dir, profilePath string) error {
	// install-tl learned -repository in 2011.
	repoFlag := "-repository"
	if ok, _ := opts.Version.Satisfies("<2011"); ok {
		repoFlag = "-location"
	}

	cmd := runner.Cmd{
		Name: executable(dir, i.Platform),
		Args: []string{"-no-gui", "-profile", profilePath, repoFlag, opts.Repository.String()},
		Dir:  dir,
	}
	res, err := i.Runner.Run(ctx, cmd)
	if err == nil {
		return nil
	}

	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	code, remote := tlerr.Classify(res.Output())
	return &tlerr.Error{
		Code:          code,
		Version:       opts.Version.String(),
		Repository:    opts.Repository.String(),
		RemoteVersion: remote,
		Err:           err,
	}
}
