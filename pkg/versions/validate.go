package versions

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Latest is the sentinel accepted in place of a release year.
const Latest = "latest"

var (
	// yearRegex how to parse TeX Live release identifiers.
	// see https://tug.org/texlive/acquire.html
	yearRegex = regexp.MustCompile(`^[0-9]{4}$`)
)

var (
	// ErrInvalidVersion is returned when a version string is neither a
	// four-digit release year nor "latest".
	ErrInvalidVersion = errors.New("not a valid TeX Live version")
)

// Validate checks if the given string is a TeX Live release identifier. It
// returns an error if not.
func Validate(v string) error {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, Latest) || yearRegex.MatchString(v) {
		return nil
	}
	return fmt.Errorf("%q: %w", v, ErrInvalidVersion)
}
