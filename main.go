package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"plombir/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := cmd.Migrate(os.Args[2:]); err != nil {
			log.WithError(err).Fatal("Migration failed")
		}
		return
	}

	// SIGINT or SIGTERM starts the graceful HTTP shutdown inside Run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Server exited with error")
	}
}
