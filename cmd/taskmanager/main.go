// Package main starts the task tracker HTTP service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/taskmanager/internal/cmd/taskmanager"
)

func main() {
	cfg, err := taskmanager.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TASKS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := taskmanager.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
