package cache

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

const keyPrefix = "setup-texlive"

// Key returns the cache key of an installation of release v on platform with
// the given packages, along with the restore key matching any set of
// packages.
func Key(platform string, v versions.Version, packages []string) (key, restoreKey string) {
	pkgs := lo.Uniq(lo.Compact(packages))
	slices.Sort(pkgs)
	sum := sha256.Sum256([]byte(strings.Join(pkgs, "\n")))

	restoreKey = fmt.Sprintf("%s-%s-%s-", keyPrefix, platform, v)
	return fmt.Sprintf("%s%x", restoreKey, sum), restoreKey
}
