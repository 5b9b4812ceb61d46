// Command fetch-teams downloads every FRC team from The Blue Alliance and
// writes a compact team-number to name table for the frontend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
