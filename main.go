package main

import (
	"context"
	"os"
	"os/signal"

	log "github.com/charmbracelet/log"
	"github.com/wolfi-dev/setup-texlive/pkg/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.New().ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
