// Package tlmgr drives the TeX Live package manager of an installation.
package tlmgr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/runner"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/tlpdb"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

// ErrUnsupportedAction is returned for actions the installed tlmgr lacks.
var ErrUnsupportedAction = errors.New("unsupported tlmgr action")

// Action is a tlmgr subcommand.
type Action int

const (
	Install Action = iota
	Update
	Option
	Conf
	Repository
	Pinning
)

func (a Action) String() string {
	switch a {
	case Install:
		return "install"
	case Update:
		return "update"
	case Option:
		return "option"
	case Conf:
		return "conf"
	case Repository:
		return "repository"
	case Pinning:
		return "pinning"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// constraint returns the releases providing a.
func (a Action) constraint() string {
	switch a {
	case Conf:
		return ">=2010"
	case Repository:
		return ">=2012"
	case Pinning:
		return ">=2013"
	case Install, Update, Option:
		return ">=2008"
	default:
		return ">=2008"
	}
}

// Tlmgr runs tlmgr from the binaries of an installation.
type Tlmgr struct {
	Runner   runner.Runner
	Version  versions.Version
	Platform release.Platform
	TexDir   string
}

// BinDir returns the directory holding the installation's binaries.
func (t *Tlmgr) BinDir() string {
	return filepath.Join(t.TexDir, "bin", t.Platform.Name(t.Version))
}

// Supports reports whether the installed tlmgr provides a.
func (t *Tlmgr) Supports(a Action) bool {
	ok, err := t.Version.Satisfies(a.constraint())
	return err == nil && ok
}

func (t *Tlmgr) run(ctx context.Context, a Action, args ...string) error {
	if !t.Supports(a) {
		return fmt.Errorf("%w: %s requires TeX Live %s", ErrUnsupportedAction, a, a.constraint())
	}

	name := "tlmgr"
	if t.Platform.OS == "windows" {
		name = "tlmgr.bat"
	}
	cmd := runner.Cmd{
		Name: filepath.Join(t.BinDir(), name),
		Args: append([]string{a.String()}, args...),
	}
	res, err := t.Runner.Run(ctx, cmd)
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
		Version:       t.Version.String(),
		RemoteVersion: remote,
		Err:           fmt.Errorf("tlmgr %s: %w", a, err),
	}
}

// Install installs packages. Duplicate names are dropped.
func (t *Tlmgr) Install(ctx context.Context, pkgs ...string) error {
	pkgs = lo.Uniq(lo.Compact(pkgs))
	if len(pkgs) == 0 {
		return nil
	}
	clog.FromContext(ctx).Infof("installing %d packages", len(pkgs))
	return t.run(ctx, Install, pkgs...)
}

// UpdateOptions select what Update updates.
type UpdateOptions struct {
	Self bool
	All  bool
	// Reinstall restores packages removed by a previous failed update.
	Reinstall bool
}

// Update updates tlmgr itself and/or every installed package.
func (t *Tlmgr) Update(ctx context.Context, opts UpdateOptions) error {
	var args []string
	if opts.Self {
		args = append(args, "--self")
	}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Reinstall {
		args = append(args, "--reinstall-forcibly-removed")
	}
	if len(args) == 0 {
		return nil
	}
	return t.run(ctx, Update, args...)
}

// SetRepository makes repo the main package repository.
func (t *Tlmgr) SetRepository(ctx context.Context, repo string) error {
	return t.run(ctx, Option, "repository", repo)
}

// ConfTexmf sets a texmf.cnf variable.
func (t *Tlmgr) ConfTexmf(ctx context.Context, key, value string) error {
	return t.run(ctx, Conf, "texmf", key, value)
}

// RepositoryAdd registers an additional repository under tag.
func (t *Tlmgr) RepositoryAdd(ctx context.Context, repo, tag string) error {
	args := []string{"add", repo}
	if tag != "" {
		args = append(args, tag)
	}
	return t.run(ctx, Repository, args...)
}

// PinningAdd pins the packages matching globs to the repository tagged tag.
func (t *Tlmgr) PinningAdd(ctx context.Context, tag string, globs ...string) error {
	if len(globs) == 0 {
		globs = []string{"*"}
	}
	return t.run(ctx, Pinning, append([]string{"add", tag}, globs...)...)
}

// List returns the packages installed in TexDir.
func (t *Tlmgr) List(ctx context.Context) ([]tlpdb.Tlpobj, error) {
	return tlpdb.Load(ctx, t.TexDir)
}
