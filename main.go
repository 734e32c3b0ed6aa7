// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/massa-polls/cliparse"
)

const programName = "massa-polls"

var configFile string

// commonRun installs the process logger. serve logs JSON to stdout; the
// query commands log text to stderr so their output stays clean.
func commonRun(cfg *cliparse.Config, jsonLogs bool) *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	opts := &slog.HandlerOptions{
		AddSource: addSource,
		Level:     logLevel,
	}
	var handler slog.Handler
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		if !cfg.Debug {
			opts.Level = slog.LevelWarn
		}
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// configFrom fetches the configuration PersistentPreRunE stored on the
// command context
func configFrom(cmd *cobra.Command) (*cliparse.Config, error) {
	cfg := cliparse.FromContext(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("no config found in context")
	}
	return cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Index and query Massa polls, projects and the poll token pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	// debug is read back through cliparse.Load with the other flags
	rootCmd.PersistentFlags().
		BoolP("debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to YAML config file")
	cliparse.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cliparse.Load(configFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(cliparse.WithContext(cmd.Context(), &cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(pollsCommand())
	rootCmd.AddCommand(projectsCommand())
	rootCmd.AddCommand(balanceCommand())
	rootCmd.AddCommand(quoteCommand())
	rootCmd.AddCommand(awaitCommand())
	rootCmd.AddCommand(callCommand())
	rootCmd.AddCommand(adminKeyCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
