package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"votex/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring and restore persisted sessions.
// 3) Serve HTTP and run the embedded outbox relay and session closer.
//
// @title votex API
// @version 1.0
// @description Vote session ledger: sessions, ballots and live results.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("votex api stopped with error: %v", err)
		return
	}
}
