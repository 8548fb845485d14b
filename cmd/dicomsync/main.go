package main

import (
	"log/slog"
	"os"

	"github.com/lstvlab/dicomsync/internal/cli"
)

func main() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
