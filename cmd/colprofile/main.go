// Package main provides the entry point for the colprofile CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Sumatoshi-tech/colprofile/cmd/colprofile/commands"
	"github.com/Sumatoshi-tech/colprofile/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	// A .env file is optional; COLPROFILE_* variables may come from it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := commands.NewRootCommand()
	rootCmd.SetArgs(commands.DefaultToProfile(rootCmd, os.Args[1:]))

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
