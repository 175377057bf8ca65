// Package tlpdb reads the TeX Live package database (texlive.tlpdb).
package tlpdb

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Path is the location of the database relative to TEXDIR.
const Path = "tlpkg/texlive.tlpdb"

const configPackage = "00texlive.config"

var (
	continuationRe     = regexp.MustCompile(`\\\r?\n`)
	commentRe          = regexp.MustCompile(`(?m)^[ \t]*#.*$`)
	nameRe             = regexp.MustCompile(`(?m)^name[ \t]+([^\r\n]*)\r?\n?`)
	revisionRe         = regexp.MustCompile(`(?m)^revision[ \t]+(\d+)`)
	catalogueVersionRe = regexp.MustCompile(`(?m)^catalogue-version[ \t]+([^\r\n]*)`)
	releaseRe          = regexp.MustCompile(`(?m)^depend[ \t]+release/(\d{4})`)
)

// Tlpobj is the subset of a package record this module relies on.
type Tlpobj struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Revision string `json:"revision"`
}

func normalize(text string) string {
	text = continuationRe.ReplaceAllString(text, "")
	return commentRe.ReplaceAllString(text, "")
}

// Parse splits the database into (name, data) pairs, in file order. The text
// preceding the first "name" line is discarded. Iteration can be stopped
// early and restarted by calling Parse again.
func Parse(text string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		rest := normalize(text)
		loc := nameRe.FindStringSubmatchIndex(rest)
		for loc != nil {
			name := strings.TrimRightFunc(rest[loc[2]:loc[3]], isSpace)
			rest = rest[loc[1]:]

			next := nameRe.FindStringSubmatchIndex(rest)
			end := len(rest)
			if next != nil {
				end = next[0]
			}
			if !yield(name, rest[:end]) {
				return
			}

			if next == nil {
				return
			}
			rest = rest[end:]
			loc = nameRe.FindStringSubmatchIndex(rest)
		}
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// Packages yields one Tlpobj per distinct package name. When a name occurs
// more than once, the first record wins.
func Packages(text string) iter.Seq[Tlpobj] {
	return func(yield func(Tlpobj) bool) {
		seen := make(map[string]struct{})
		for name, data := range Parse(text) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if !yield(newTlpobj(name, data)) {
				return
			}
		}
	}
}

func newTlpobj(name, data string) Tlpobj {
	obj := Tlpobj{Name: name}
	if m := revisionRe.FindStringSubmatch(data); m != nil {
		obj.Revision = m[1]
	}
	if m := catalogueVersionRe.FindStringSubmatch(data); m != nil {
		obj.Version = strings.TrimSpace(m[1])
	}
	return obj
}

// IsListable reports whether a package should appear in package listings.
// Architecture-specific subpackages (foo.x86_64-linux) as well as schemes and
// collections are excluded; texlive.infra is always listed.
func IsListable(name string) bool {
	if name == "texlive.infra" {
		return true
	}
	if strings.Contains(name, ".") {
		return false
	}
	return !strings.HasPrefix(name, "scheme-") && !strings.HasPrefix(name, "collection-")
}

// List returns the listable packages of a database, in file order.
func List(text string) []Tlpobj {
	var pkgs []Tlpobj
	for obj := range Packages(text) {
		if IsListable(obj.Name) {
			pkgs = append(pkgs, obj)
		}
	}
	return pkgs
}

// Load reads and lists the packages installed under texdir.
func Load(ctx context.Context, texdir string) ([]Tlpobj, error) {
	p := filepath.Join(texdir, filepath.FromSlash(Path))
	clog.FromContext(ctx).Debugf("reading %s", p)

	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading package database: %w", err)
	}
	return List(string(b)), nil
}

// Release returns the release year recorded in the 00texlive.config record,
// or "" if the database does not declare one.
func Release(text string) string {
	for name, data := range Parse(text) {
		if name != configPackage {
			continue
		}
		if m := releaseRe.FindStringSubmatch(data); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}
