// Package config assembles the inputs of a setup run from defaults, the
// INPUT_* environment variables GitHub Actions sets, and command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wolfi-dev/setup-texlive/pkg/mirror"
	"github.com/wolfi-dev/setup-texlive/pkg/stringhelpers"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

// Keys of the recognized inputs.
const (
	KeyVersion           = "version"
	KeyRepository        = "repository"
	KeyPrefix            = "prefix"
	KeyTexDir            = "texdir"
	KeyCache             = "cache"
	KeyPackages          = "packages"
	KeyPackageFile       = "package-file"
	KeyTlcontrib         = "tlcontrib"
	KeyUpdateAllPackages = "update-all-packages"
	KeyMirrorDenylist    = "mirror-denylist"
	KeyMasterMirror      = "master-mirror"
)

// ErrInvalidInput is wrapped by every validation error.
var ErrInvalidInput = errors.New("invalid input")

// Config is the validated input of a setup run.
type Config struct {
	Version           versions.Version
	Repository        *url.URL
	Prefix            string
	TexDir            string
	Cache             bool
	Packages          []string
	PackageFiles      []string
	Tlcontrib         bool
	UpdateAllPackages bool
	MirrorDenylist    []string
	MasterMirror      *url.URL
}

// AddFlags registers a flag for every input on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(KeyVersion, versions.Latest, "TeX Live release to install, a year or \"latest\"")
	fs.String(KeyRepository, "", "package repository to install from, disables mirror fallback")
	fs.String(KeyPrefix, "", "installation prefix (defaults to $RUNNER_TEMP/setup-texlive)")
	fs.String(KeyTexDir, "", "TEXDIR of the installation (defaults to <prefix>/<version>)")
	fs.Bool(KeyCache, true, "save and restore the installation from the cache")
	fs.String(KeyPackages, "", "whitespace separated packages to install")
	fs.String(KeyPackageFile, "", "newline separated DEPENDS.txt files listing packages to install")
	fs.Bool(KeyTlcontrib, false, "add the tlcontrib repository")
	fs.Bool(KeyUpdateAllPackages, false, "update every package of a restored installation")
	fs.String(KeyMirrorDenylist, strings.Join(mirror.DefaultDenylist, ","), "comma separated hostname fragments of mirrors to avoid")
	fs.String(KeyMasterMirror, mirror.DefaultMaster, "CTAN master mirror used as fallback")
}

// Load reads the inputs. A flag overrides the environment only when it was
// set explicitly; fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyVersion, versions.Latest)
	v.SetDefault(KeyCache, true)
	v.SetDefault(KeyMirrorDenylist, strings.Join(mirror.DefaultDenylist, ","))
	v.SetDefault(KeyMasterMirror, mirror.DefaultMaster)

	v.SetEnvPrefix("INPUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	var (
		c   Config
		err error
	)

	if c.Version, err = parseVersion(v.GetString(KeyVersion)); err != nil {
		return nil, invalid(KeyVersion, err)
	}
	if c.Repository, err = parseURL(v.GetString(KeyRepository)); err != nil {
		return nil, invalid(KeyRepository, err)
	}
	if c.MasterMirror, err = parseURL(v.GetString(KeyMasterMirror)); err != nil {
		return nil, invalid(KeyMasterMirror, err)
	}
	if c.MasterMirror == nil {
		c.MasterMirror, _ = url.Parse(mirror.DefaultMaster)
	}

	c.Prefix = expand(v.GetString(KeyPrefix))
	if c.Prefix == "" {
		c.Prefix = defaultPrefix()
	}
	c.TexDir = expand(v.GetString(KeyTexDir))

	c.Cache = v.GetBool(KeyCache)
	c.Tlcontrib = v.GetBool(KeyTlcontrib)
	c.UpdateAllPackages = v.GetBool(KeyUpdateAllPackages)

	c.Packages = strings.Fields(v.GetString(KeyPackages))
	for _, line := range stringhelpers.RegexpFields(v.GetString(KeyPackageFile), `\s*\n\s*`) {
		if line = expand(line); line != "" {
			c.PackageFiles = append(c.PackageFiles, line)
		}
	}
	c.MirrorDenylist = stringhelpers.RegexpFields(v.GetString(KeyMirrorDenylist), `[,\s]+`)

	return &c, nil
}

func invalid(key string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrInvalidInput, key, err)
}

func parseVersion(s string) (versions.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = versions.Latest
	}
	return versions.NewVersion(s)
}

// parseURL accepts an absolute http(s) URL and returns it with a trailing
// slash, or nil for an empty string.
func parseURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q is not an http(s) URL", s)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func expand(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(p, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + rest
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

func defaultPrefix() string {
	base := os.Getenv("RUNNER_TEMP")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "setup-texlive")
}
