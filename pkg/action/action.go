// Package action writes results for later steps of a GitHub Actions job.
package action

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-githubactions"
)

// Commands appends to the files GitHub Actions reads after a step. Empty
// file names turn the corresponding calls into no-ops.
type Commands struct {
	OutputFile string
	PathFile   string
}

// FromEnv returns Commands for the files named by $GITHUB_OUTPUT and
// $GITHUB_PATH.
func FromEnv() Commands {
	return Commands{
		OutputFile: os.Getenv("GITHUB_OUTPUT"),
		PathFile:   os.Getenv("GITHUB_PATH"),
	}
}

// SetOutput sets the step output name to value.
func (c Commands) SetOutput(ctx context.Context, name, value string) error {
	clog.FromContext(ctx).Debugf("output %s=%s", name, value)
	if c.OutputFile == "" {
		return nil
	}
	return c.issue(c.OutputFile, func(a *githubactions.Action) { a.SetOutput(name, value) })
}

// AddPath prepends dir to PATH for later steps.
func (c Commands) AddPath(ctx context.Context, dir string) error {
	clog.FromContext(ctx).Debugf("adding %s to PATH", dir)
	if c.PathFile == "" {
		return nil
	}
	return c.issue(c.PathFile, func(a *githubactions.Action) { a.AddPath(dir) })
}

// issue runs fn against an Action reading only c's files. The library
// appends to files without creating them and panics on write failures.
func (c Commands) issue(name string, fn func(*githubactions.Action)) (err error) {
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writing %s: %v", name, r)
		}
	}()
	fn(githubactions.New(
		githubactions.WithGetenv(c.getenv),
		// Workflow commands on stdout are deprecated; file commands only.
		githubactions.WithWriter(io.Discard),
	))
	return nil
}

func (c Commands) getenv(key string) string {
	switch key {
	case "GITHUB_OUTPUT":
		return c.OutputFile
	case "GITHUB_PATH":
		return c.PathFile
	default:
		return os.Getenv(key)
	}
}
