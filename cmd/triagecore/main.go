package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusops/triagecore/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		// A canceled context is a graceful operator-initiated stop.
		if errors.Is(err, context.Canceled) {
			return
		}
		os.Exit(1)
	}
}
