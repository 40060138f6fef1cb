package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := InitApp(ctx)
	if err != nil {
		log.Fatalf("init app failed: %v", err)
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		log.Printf("app run failed: %v", err)
	}
	app.Shutdown(context.Background())
}
