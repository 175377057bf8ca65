package versions

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// latestOrdinal is what "latest" is constraint-checked as. It is beyond
// every four-digit release year.
const latestOrdinal = math.MaxInt32

// Version identifies a TeX Live release: either a four-digit release year or
// the "latest" sentinel. The zero value is not a valid version.
type Version struct {
	year   int
	latest bool
}

// NewVersion parses a release year or "latest".
func NewVersion(v string) (Version, error) {
	if err := Validate(v); err != nil {
		return Version{}, err
	}
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, Latest) {
		return Version{latest: true}, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return Version{}, fmt.Errorf("%q: %w", v, ErrInvalidVersion)
	}
	return Version{year: year}, nil
}

// MustParse is like NewVersion but panics on invalid input. It is meant for
// tables of known releases.
func MustParse(v string) Version {
	parsed, err := NewVersion(v)
	if err != nil {
		panic(err)
	}
	return parsed
}

// FromYear returns the version of a concrete release year.
func FromYear(year int) Version {
	return Version{year: year}
}

// IsLatest reports whether v is the "latest" sentinel.
func (v Version) IsLatest() bool {
	return v.latest
}

// IsZero reports whether v is the zero value.
func (v Version) IsZero() bool {
	return !v.latest && v.year == 0
}

// Year returns the release year, or 0 for "latest".
func (v Version) Year() int {
	return v.year
}

func (v Version) String() string {
	if v.latest {
		return Latest
	}
	return strconv.Itoa(v.year)
}

// Resolve replaces "latest" with the given concrete release.
func (v Version) Resolve(latest Version) Version {
	if v.latest {
		return latest
	}
	return v
}

// Next returns the release following v. "latest" has no successor.
func (v Version) Next() Version {
	if v.latest {
		return v
	}
	return Version{year: v.year + 1}
}

func (v Version) ordinal() int {
	if v.latest {
		return latestOrdinal
	}
	return v.year
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to
// or after other.
func (v Version) Compare(other Version) int {
	switch {
	case v.latest && other.latest:
		return 0
	case v.latest:
		return 1
	case other.latest:
		return -1
	}
	switch a, b := v.year, other.year; {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareString is Compare against a literal year string (or "latest").
func (v Version) CompareString(other string) (int, error) {
	o, err := NewVersion(other)
	if err != nil {
		return 0, err
	}
	return v.Compare(o), nil
}

func (v Version) Equal(other Version) bool              { return v.Compare(other) == 0 }
func (v Version) LessThan(other Version) bool           { return v.Compare(other) < 0 }
func (v Version) LessThanOrEqual(other Version) bool    { return v.Compare(other) <= 0 }
func (v Version) GreaterThan(other Version) bool        { return v.Compare(other) > 0 }
func (v Version) GreaterThanOrEqual(other Version) bool { return v.Compare(other) >= 0 }

// Satisfies checks v against a constraint expression such as ">=2012" or
// ">=2008, <2010".
func (v Version) Satisfies(constraint string) (bool, error) {
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	sv, err := version.NewVersion(strconv.Itoa(v.ordinal()))
	if err != nil {
		return false, err
	}
	return c.Check(sv), nil
}

// Satisfies parses v and checks it against constraint.
func Satisfies(v, constraint string) (bool, error) {
	parsed, err := NewVersion(v)
	if err != nil {
		return false, err
	}
	return parsed.Satisfies(constraint)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if v.IsZero() {
		return nil, fmt.Errorf("marshaling zero version: %w", ErrInvalidVersion)
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := NewVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ByLatest sorts versions oldest first, so the latest release is last.
type ByLatest []Version

func (u ByLatest) Len() int {
	return len(u)
}

func (u ByLatest) Swap(i, j int) {
	u[i], u[j] = u[j], u[i]
}

func (u ByLatest) Less(i, j int) bool {
	return u[i].LessThan(u[j])
}
