package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"molink/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		cancel()
		os.Exit(1)
	}
}
