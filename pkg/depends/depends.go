// Package depends parses DEPENDS.txt package lists.
//
// The format is line oriented:
//
//	# comment
//	package <name>
//	hard <name>...
//	soft <name>...
//	<name>...
//
// A line without a directive keyword is read as a "hard" directive. A
// "package" directive sets the owning package of the hard and soft
// dependencies that follow it.
package depends

import (
	"context"
	"fmt"
	"iter"
	"os"
	"regexp"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/samber/lo"
)

// Type is the strength of a dependency.
type Type int

const (
	Hard Type = iota
	Soft
)

func (t Type) String() string {
	switch t {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type directive int

const (
	directivePackage directive = iota
	directiveHard
	directiveSoft
)

func parseDirective(s string) (directive, bool) {
	switch s {
	case "package":
		return directivePackage, true
	case "hard":
		return directiveHard, true
	case "soft":
		return directiveSoft, true
	default:
		return 0, false
	}
}

// Dependency is a single package requested by a DEPENDS.txt file. Package is
// empty when no "package" directive is in effect.
type Dependency struct {
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	Package string `json:"package,omitempty"`
}

var directiveRe = regexp.MustCompile(`^(package|hard|soft)(?:$|\s+(.*))$`)

type line struct {
	number int
	text   string
}

// lines yields the trimmed, comment-free, non-empty lines of text.
func lines(text string) iter.Seq[line] {
	return func(yield func(line) bool) {
		for i, l := range strings.Split(text, "\n") {
			l = strings.TrimSpace(l)
			if idx := strings.IndexByte(l, '#'); idx >= 0 {
				l = strings.TrimSpace(l[:idx])
			}
			if l == "" {
				continue
			}
			if !yield(line{number: i + 1, text: l}) {
				return
			}
		}
	}
}

// Parse yields the dependencies of a DEPENDS.txt file in line order.
// Malformed lines are logged as warnings and skipped.
func Parse(ctx context.Context, text string) iter.Seq[Dependency] {
	log := clog.FromContext(ctx)

	return func(yield func(Dependency) bool) {
		var owner string
		for l := range lines(text) {
			d, args := directiveHard, l.text
			if m := directiveRe.FindStringSubmatch(l.text); m != nil {
				d, _ = parseDirective(m[1])
				args = strings.TrimSpace(m[2])
			}
			names := strings.Fields(args)

			switch d {
			case directivePackage:
				if len(names) != 1 {
					log.Warnf("syntax error at line %d: package directive requires exactly one package name: %q", l.number, l.text)
					owner = ""
					continue
				}
				owner = names[0]
			case directiveHard, directiveSoft:
				if len(names) == 0 {
					log.Warnf("syntax error at line %d: no package names given: %q", l.number, l.text)
					continue
				}
				typ := Hard
				if d == directiveSoft {
					typ = Soft
				}
				for _, name := range names {
					if !yield(Dependency{Name: name, Type: typ, Package: owner}) {
						return
					}
				}
			}
		}
	}
}

// ParseAll is Parse collected into a slice.
func ParseAll(ctx context.Context, text string) []Dependency {
	var deps []Dependency
	for d := range Parse(ctx, text) {
		deps = append(deps, d)
	}
	return deps
}

// Names returns the distinct dependency names in first-seen order.
func Names(deps []Dependency) []string {
	return lo.Uniq(lo.Map(deps, func(d Dependency, _ int) string {
		return d.Name
	}))
}

// ReadFiles parses every file in order and concatenates the results.
func ReadFiles(ctx context.Context, paths ...string) ([]Dependency, error) {
	var deps []Dependency
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading package file: %w", err)
		}
		clog.FromContext(ctx).Debugf("parsing %s", p)
		deps = append(deps, ParseAll(ctx, string(b))...)
	}
	return deps, nil
}
