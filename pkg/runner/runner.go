// Package runner runs external commands to completion.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/chainguard-dev/clog"
)

// Cmd describes a command to run.
type Cmd struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin io.Reader
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stdout and stderr combined.
func (r Result) Output() string {
	if r.Stdout == "" {
		return r.Stderr
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Cmd    string
	Result Result
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Cmd, e.Result.ExitCode)
}

// Runner runs a command and waits for it to finish. A non-zero exit status
// is reported as an *ExitError alongside the Result.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// OS runs commands as child processes.
type OS struct{}

func (OS) Run(ctx context.Context, cmd Cmd) (Result, error) {
	log := clog.FromContext(ctx)
	log.Infof("running %s", cmd)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if stderr.Len() > 0 {
		log.Debugf("%s: %s", cmd.Name, strings.TrimSpace(res.Stderr))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Cmd: cmd.Name, Result: res}
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("running %s: %w", cmd.Name, err)
	}
}
