// Package tlerr defines the faults reported by install-tl and tlmgr.
package tlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Code identifies a class of fault.
type Code int

const (
	Unspecified Code = iota
	FailedToDownload
	UnexpectedVersion
	IncompatibleRepositoryVersion
	TLPDBFailedToInitialize
	PackageChecksumMismatch
	PackageNotFound
)

func (c Code) String() string {
	switch c {
	case Unspecified:
		return "UNSPECIFIED"
	case FailedToDownload:
		return "FAILED_TO_DOWNLOAD"
	case UnexpectedVersion:
		return "UNEXPECTED_VERSION"
	case IncompatibleRepositoryVersion:
		return "INCOMPATIBLE_REPOSITORY_VERSION"
	case TLPDBFailedToInitialize:
		return "TLPDB_FAILED_TO_INITIALIZE"
	case PackageChecksumMismatch:
		return "PACKAGE_CHECKSUM_MISMATCH"
	case PackageNotFound:
		return "PACKAGE_NOT_FOUND"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is a fault raised while installing or managing TeX Live.
type Error struct {
	Code          Code
	Version       string
	Repository    string
	RemoteVersion string
	Err           error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.ReplaceAll(e.Code.String(), "_", " ")))
	if e.Version != "" {
		fmt.Fprintf(&b, " (version %s", e.Version)
		if e.RemoteVersion != "" {
			fmt.Fprintf(&b, ", repository serves %s", e.RemoteVersion)
		}
		b.WriteString(")")
	}
	if e.Repository != "" {
		fmt.Fprintf(&b, " [%s]", e.Repository)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or
// Unspecified.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unspecified
}

// Recoverable reports whether err may be resolved by retrying against the
// master mirror.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case FailedToDownload,
		UnexpectedVersion,
		IncompatibleRepositoryVersion,
		TLPDBFailedToInitialize:
		return true
	case Unspecified, PackageChecksumMismatch, PackageNotFound:
		return false
	default:
		return false
	}
}

var (
	incompatibleRe = regexp.MustCompile(`(?s)The TeX Live versions? supported by the repository.*?\((\d{4})--(\d{4})\).*?do not include the version of the local installation`)
	olderRe        = regexp.MustCompile(`is older than the local installation|repository being accessed are not compatible`)
	tlpdbInitRe    = regexp.MustCompile(`TLPDB(?:::from_file)? could not initialize from|Could not load TLPDB`)
	checksumRe     = regexp.MustCompile(`checksums differ for`)
	notFoundRe     = regexp.MustCompile(`package (\S+) not present in repository`)
)

// Classify inspects the combined output of install-tl or tlmgr and returns
// the fault it reports, with RemoteVersion filled in when known.
func Classify(output string) (Code, string) {
	if m := incompatibleRe.FindStringSubmatch(output); m != nil {
		return IncompatibleRepositoryVersion, m[2]
	}
	switch {
	case olderRe.MatchString(output):
		return IncompatibleRepositoryVersion, ""
	case tlpdbInitRe.MatchString(output):
		return TLPDBFailedToInitialize, ""
	case checksumRe.MatchString(output):
		return PackageChecksumMismatch, ""
	case notFoundRe.MatchString(output):
		return PackageNotFound, ""
	default:
		return Unspecified, ""
	}
}
