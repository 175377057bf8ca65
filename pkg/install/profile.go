package install

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wolfi-dev/setup-texlive/pkg/release"
	"github.com/wolfi-dev/setup-texlive/pkg/versions"
)

// Profile holds the answers install-tl would otherwise ask for.
type Profile struct {
	Version   versions.Version
	Platform  release.Platform
	Prefix    string
	TexDir    string
	TexmfHome string
}

// TexDirFor returns the default TEXDIR of release v below prefix.
func TexDirFor(prefix string, v versions.Version) string {
	return filepath.Join(prefix, v.String())
}

// SystemTrees returns the TEXMFLOCAL, TEXMFSYSCONFIG and TEXMFSYSVAR
// settings of an installation at texdir below prefix.
func SystemTrees(prefix, texdir string) [][2]string {
	return [][2]string{
		{"TEXMFLOCAL", filepath.Join(prefix, "texmf-local")},
		{"TEXMFSYSCONFIG", filepath.Join(texdir, "texmf-config")},
		{"TEXMFSYSVAR", filepath.Join(texdir, "texmf-var")},
	}
}

// String renders the profile in install-tl's "key value" format.
func (p Profile) String() string {
	texdir := p.TexDir
	if texdir == "" {
		texdir = TexDirFor(p.Prefix, p.Version)
	}
	texmfHome := p.TexmfHome
	if texmfHome == "" {
		texmfHome = "~/texmf"
	}
	userDir := fmt.Sprintf("~/.texlive%s", p.Version)

	scheme := "scheme-infraonly"
	if ok, _ := p.Version.Satisfies("<2016"); ok {
		scheme = "scheme-minimal"
	}

	lines := [][2]string{
		{"selected_scheme", scheme},
		{"TEXDIR", texdir},
	}
	lines = append(lines, SystemTrees(p.Prefix, texdir)...)
	lines = append(lines,
		[2]string{"TEXMFHOME", texmfHome},
		[2]string{"TEXMFCONFIG", userDir + "/texmf-config"},
		[2]string{"TEXMFVAR", userDir + "/texmf-var"},
		[2]string{"binary_" + p.Platform.Name(p.Version), "1"},
	)

	// Option names gained instopt_/tlpdbopt_ prefixes in 2017.
	if ok, _ := p.Version.Satisfies(">=2017"); ok {
		lines = append(lines,
			[2]string{"instopt_adjustrepo", "0"},
			[2]string{"instopt_letter", "0"},
			[2]string{"instopt_portable", "0"},
			[2]string{"instopt_write18_restricted", "1"},
			[2]string{"tlpdbopt_autobackup", "0"},
			[2]string{"tlpdbopt_install_docfiles", "0"},
			[2]string{"tlpdbopt_install_srcfiles", "0"},
		)
	} else {
		lines = append(lines,
			[2]string{"option_adjustrepo", "0"},
			[2]string{"option_letter", "0"},
			[2]string{"option_write18_restricted", "1"},
			[2]string{"option_autobackup", "0"},
			[2]string{"option_doc", "0"},
			[2]string{"option_src", "0"},
		)
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s %s\n", l[0], filepath.ToSlash(l[1]))
	}
	return b.String()
}
