package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sitecount/cmd/sitecount/app"
	"sitecount/internal/limiter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := limiter.NewClock()

	err := app.Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr, nil, clock)
	if err != nil {
		log.Print(err)
		stop()
		os.Exit(1)
	}
}
