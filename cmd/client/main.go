package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"NoteKeeper/internal/cli/commands"
	"NoteKeeper/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Load unified config (env + flags)
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion()
		return
	}

	// кэш заметок хранится по пользователям в этом каталоге
	if os.Getenv("CLIENT_DB_PATH") == "" && cfg.ClientDBPath != "" {
		_ = os.Setenv("CLIENT_DB_PATH", cfg.ClientDBPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// dispatcher
	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == 0 {
		return
	}
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("NoteKeeper CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
