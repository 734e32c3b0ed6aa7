// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/confirm"
	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/indexer"
	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/router"
)

const shutdownTimeout = 10 * time.Second

func serveRun(cmd *cobra.Command, cfg *cliparse.Config) error {
	logger := commonRun(cfg, true)
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	logger.Info("Database schema ready", "type", cfg.DatabaseType)

	client := massa.NewClient(massa.Config{
		URL:            cfg.RPCURL,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := db.NewStore(dbConn)
	idx := indexer.New(client, store, indexer.Config{
		PollsContract: cfg.PollsContract,
		TokenContract: cfg.TokenContract,
		Interval:      cfg.SyncInterval,
		Logger:        logger.With("component", "indexer"),
		PromRegistry:  registry,
	})
	waiter := confirm.NewWaiter(client, idx.Reconstructor(), cfg.ConfirmInterval, cfg.ConfirmTimeout, logger.With("component", "confirm"))

	mux := router.NewRouter(router.Deps{
		Store:    store,
		Waiter:   waiter,
		Syncer:   idx,
		Registry: registry,
		Config:   *cfg,
	})

	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return idx.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for Ctrl-C or a failed sibling
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the indexer and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			return serveRun(cmd, cfg)
		},
	}
	return cmd
}
