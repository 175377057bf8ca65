package release

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

// ErrUnsupportedPlatform is returned when a release has no binaries for the
// host platform.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform is a GOOS/GOARCH pair.
type Platform struct {
	OS   string
	Arch string
}

// Host returns the platform this binary runs on.
func Host() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// minimum returns the constraint releases must satisfy on p, or "" if p is
// not supported at all.
func (p Platform) minimum() string {
	switch {
	case p.OS == "linux" && p.Arch == "amd64":
		return ">=2008"
	case p.OS == "linux" && p.Arch == "arm64":
		return ">=2017"
	case p.OS == "darwin" && p.Arch == "amd64":
		return ">=2013"
	case p.OS == "darwin" && p.Arch == "arm64":
		return ">=2021"
	case p.OS == "windows" && (p.Arch == "amd64" || p.Arch == "386"):
		return ">=2008"
	default:
		return ""
	}
}

// Supports returns an error if v cannot be installed on p.
func (p Platform) Supports(v versions.Version) error {
	constraint := p.minimum()
	if constraint == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
	ok, err := v.Satisfies(constraint)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: TeX Live %s is not available for %s (requires %s)", ErrUnsupportedPlatform, v, p, constraint)
	}
	return nil
}

// Name returns the TeX Live platform identifier binaries are installed
// under, e.g. "x86_64-linux".
func (p Platform) Name(v versions.Version) string {
	switch p.OS {
	case "linux":
		if p.Arch == "arm64" {
			return "aarch64-linux"
		}
		return "x86_64-linux"
	case "darwin":
		if ok, _ := v.Satisfies(">=2021"); ok {
			return "universal-darwin"
		}
		return "x86_64-darwin"
	case "windows":
		if ok, _ := v.Satisfies(">=2023"); ok {
			return "windows"
		}
		return "win32"
	default:
		return p.Arch + "-" + p.OS
	}
}
