package tlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverable(t *testing.T) {
	cases := map[Code]bool{
		Unspecified:                   false,
		FailedToDownload:              true,
		UnexpectedVersion:             true,
		IncompatibleRepositoryVersion: true,
		TLPDBFailedToInitialize:       true,
		PackageChecksumMismatch:       false,
		PackageNotFound:               false,
	}
	for code, want := range cases {
		t.Run(code.String(), func(t *testing.T) {
			err := fmt.Errorf("installing: %w", &Error{Code: code})
			assert.Equal(t, want, Recoverable(err))
		})
	}

	assert.False(t, Recoverable(errors.New("plain")))
	assert.False(t, Recoverable(nil))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		code    Code
		version string
	}{
		{
			name: "incompatible repository",
			output: `tlmgr: The TeX Live versions supported by the repository
  https://mirror.example/systems/texlive/tlnet
  (2023--2023)
do not include the version of the local installation
  (2024).`,
			code:    IncompatibleRepositoryVersion,
			version: "2023",
		},
		{
			name:   "older repository",
			output: "./install-tl: The repository is older than the local installation",
			code:   IncompatibleRepositoryVersion,
		},
		{
			name:   "tlpdb",
			output: "./install-tl: TLPDB::from_file could not initialize from: https://mirror.example/tlpkg/texlive.tlpdb",
			code:   TLPDBFailedToInitialize,
		},
		{
			name:   "checksum",
			output: "TLUtils::check_file_and_remove: checksums differ for /tmp/foo.tar.xz:",
			code:   PackageChecksumMismatch,
		},
		{
			name:   "not found",
			output: "tlmgr install: package nosuchpkg not present in repository.",
			code:   PackageNotFound,
		},
		{
			name:   "anything else",
			output: "Killed",
			code:   Unspecified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, version := Classify(tt.output)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &Error{
		Code:          IncompatibleRepositoryVersion,
		Version:       "2024",
		RemoteVersion: "2023",
		Repository:    "https://mirror.example/",
		Err:           cause,
	}

	assert.Equal(t, "incompatible repository version (version 2024, repository serves 2023) [https://mirror.example/]: exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, IncompatibleRepositoryVersion, CodeOf(fmt.Errorf("wrapped: %w", err)))
}
