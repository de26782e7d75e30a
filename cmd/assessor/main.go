package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/assessor/internal/app/bootstrap"
	"github.com/dalemusser/assessor/internal/app/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := commands.Runner{
		Layers: bootstrap.DefaultLayers(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := r.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, commands.ErrUsage) {
			log.SetFlags(0)
			log.Print(err)
			stop()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
