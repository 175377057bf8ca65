package cli

import (
	"context"
	"os"

	"github.com/chainguard-dev/clog"
	charmlog "github.com/charmbracelet/log"
)

func newLogger(verbosity int) *clog.Logger {
	level := charmlog.InfoLevel
	if verbosity > 0 {
		level = charmlog.DebugLevel
	}
	return clog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true, Level: level}))
}

func withLogger(ctx context.Context, verbosity int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return clog.WithLogger(ctx, newLogger(verbosity))
}
