package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/wolfi-dev/setup-texlive/pkg/action"
	"github.com/wolfi-dev/setup-texlive/pkg/cache"
	"github.com/wolfi-dev/setup-texlive/pkg/cli/internal"
	"github.com/wolfi-dev/setup-texlive/pkg/config"
	"github.com/wolfi-dev/setup-texlive/pkg/ctan"
	"github.com/wolfi-dev/setup-texlive/pkg/depends"
	http2 "github.com/wolfi-dev/setup-texlive/pkg/http"
	"github.com/wolfi-dev/setup-texlive/pkg/install"
	"github.com/wolfi-dev/setup-texlive/pkg/internal/errorhelpers"
	"github.com/wolfi-dev/setup-texlive/pkg/mirror"
	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/runner"
	"github.com/wolfi-dev/setup-texlive/pkg/tlerr"
	"github.com/wolfi-dev/setup-texlive/pkg/tlmgr"
	"github.com/wolfi-dev/setup-texlive/pkg/tlnet"
	"golang.org/x/time/rate"
)

const tlcontribTag = "tlcontrib"

func cmdSetup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install TeX Live, restoring it from the cache when possible",
		Long: `Install TeX Live, restoring it from the cache when possible.

Every flag can also be given as an INPUT_<NAME> environment variable, the way
GitHub Actions passes inputs, e.g. INPUT_VERSION=2024 or INPUT_PACKAGE_FILE=DEPENDS.txt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := newSetup(cfg).run(cmd.Context()); err != nil {
				if step := errorhelpers.LabelOf(err); step != "" {
					clog.FromContext(cmd.Context()).Errorf("setup failed while %s", step)
				}
				return err
			}
			return nil
		},
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

type setup struct {
	cfg      *config.Config
	platform release.Platform
	releases *release.Releases
	mirrors  *mirror.Resolver
	checker  http2.Doer
	runner   runner.Runner
	cache    cache.Service
	action   action.Commands
}

func newSetup(cfg *config.Config) *setup {
	return &setup{
		cfg:      cfg,
		platform: release.Host(),
		releases: release.New(ctan.New()),
		mirrors: mirror.New(
			mirror.WithDenylist(cfg.MirrorDenylist...),
			mirror.WithMaster(cfg.MasterMirror),
		),
		checker: http2.NewClient(rate.NewLimiter(rate.Every(250*time.Millisecond), 1)),
		runner:  runner.OS{},
		cache:   cache.NewFS(""),
		action:  action.FromEnv(),
	}
}

func (s *setup) run(ctx context.Context) error {
	log := clog.FromContext(ctx)

	v, channel, err := s.releases.Validate(ctx, s.cfg.Version, s.platform)
	if err != nil {
		return err
	}
	log.Infof("setting up TeX Live %s (%s)", v, channel)

	deps, err := depends.ReadFiles(ctx, s.cfg.PackageFiles...)
	if err != nil {
		return errorhelpers.LabelError("reading package files", err)
	}
	packages := lo.Uniq(slices.Concat(s.cfg.Packages, depends.Names(deps)))
	log.Infof("%s requested", internal.Count(len(packages), "package", "packages"))

	texdir := s.cfg.TexDir
	if texdir == "" {
		texdir = install.TexDirFor(s.cfg.Prefix, v)
	}
	tl := &tlmgr.Tlmgr{Runner: s.runner, Version: v, Platform: s.platform, TexDir: texdir}

	key, restoreKey := cache.Key(s.platform.Name(v), v, packages)
	var hit string
	if s.cfg.Cache {
		hit, err = s.cache.Restore(ctx, key, []string{restoreKey}, texdir)
		if err != nil {
			log.Warnf("failed to restore cache: %v", err)
			hit = ""
		}
	}

	if hit == "" {
		o := &install.Orchestrator{
			Installer: &install.Installer{
				Client:   http.DefaultClient,
				Runner:   s.runner,
				Platform: s.platform,
			},
			Mirrors: s.mirrors,
			Client:  s.checker,
		}
		res, err := o.Run(ctx, install.Request{
			Version:    v,
			Channel:    channel,
			Latest:     s.cfg.Version.IsLatest(),
			Repository: s.cfg.Repository,
			Prefix:     s.cfg.Prefix,
			TexDir:     texdir,
		})
		if err != nil {
			return err
		}
		if res.Fallback {
			log.Warnf("installed from the master mirror %s", res.Repository)
		}
	} else {
		if err := relocate(ctx, tl, s.cfg.Prefix); err != nil {
			return errorhelpers.LabelError("relocating restored installation", err)
		}
		// Historic repositories are frozen, so only current releases can
		// be updated.
		if channel == release.Current {
			if err := tl.Update(ctx, tlmgr.UpdateOptions{Self: true, All: s.cfg.UpdateAllPackages, Reinstall: s.cfg.UpdateAllPackages}); err != nil {
				return errorhelpers.LabelError("updating restored installation", err)
			}
		}
	}

	if err := s.action.AddPath(ctx, tl.BinDir()); err != nil {
		return err
	}

	// Restored installations keep the repositories they were saved with.
	if s.cfg.Tlcontrib && hit == "" {
		if err := s.addTlcontrib(ctx, tl, channel); err != nil {
			return errorhelpers.LabelError("adding tlcontrib", err)
		}
	}

	if hit != key {
		if err := s.installPackages(ctx, tl, channel, packages); err != nil {
			return errorhelpers.LabelError("installing packages", err)
		}
		if s.cfg.Cache {
			if err := s.cache.Save(ctx, key, texdir); err != nil {
				log.Warnf("failed to save cache: %v", err)
			}
		}
	}

	for _, out := range [][2]string{
		{"version", v.String()},
		{"texdir", texdir},
		{"cache-hit", strconv.FormatBool(hit == key)},
		{"cache-key", key},
	} {
		if err := s.action.SetOutput(ctx, out[0], out[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *setup) addTlcontrib(ctx context.Context, tl *tlmgr.Tlmgr, channel release.Channel) error {
	if channel != release.Current {
		clog.FromContext(ctx).Warnf("tlcontrib is only available for the current release, ignoring it")
		return nil
	}
	repo, err := tlnet.Contrib(ctx, s.mirrors, false)
	if err != nil {
		return err
	}
	if err := tl.RepositoryAdd(ctx, repo.String(), tlcontribTag); err != nil {
		return fmt.Errorf("registering %s: %w", repo, err)
	}
	return tl.PinningAdd(ctx, tlcontribTag)
}

// relocate points the system trees of a restored installation at prefix,
// which may differ from the one it was cached under.
func relocate(ctx context.Context, tl *tlmgr.Tlmgr, prefix string) error {
	if !tl.Supports(tlmgr.Conf) {
		clog.FromContext(ctx).Debugf("tlmgr %s cannot set texmf.cnf variables, keeping cached paths", tl.Version)
		return nil
	}
	for _, kv := range install.SystemTrees(prefix, tl.TexDir) {
		if err := tl.ConfTexmf(ctx, kv[0], filepath.ToSlash(kv[1])); err != nil {
			return err
		}
	}
	return nil
}

// installPackages installs packages. A checksum mismatch means the resolved
// mirror is out of sync, so tlmgr is switched to the master mirror and the
// install is tried once more.
func (s *setup) installPackages(ctx context.Context, tl *tlmgr.Tlmgr, channel release.Channel, packages []string) error {
	err := tl.Install(ctx, packages...)
	if tlerr.CodeOf(err) != tlerr.PackageChecksumMismatch || channel != release.Current || s.cfg.Repository != nil {
		return err
	}

	master, merr := tlnet.CTAN(ctx, s.mirrors, true)
	if merr != nil {
		return err
	}
	clog.FromContext(ctx).Warnf("package checksums differ, retrying with the master mirror %s", master)
	if err := tl.SetRepository(ctx, master.String()); err != nil {
		return err
	}
	return tl.Install(ctx, packages...)
}
