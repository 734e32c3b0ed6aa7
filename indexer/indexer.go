// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

const DefaultInterval = 30 * time.Second

// Store receives the reconstructed snapshot and the run bookkeeping
type Store interface {
	ReplaceSnapshot(ctx context.Context, snap models.Snapshot) error
	RecordSyncRun(ctx context.Context, run models.SyncRun) error
}

type Config struct {
	PollsContract string
	// TokenContract emits balance and reserve lines; empty disables them
	TokenContract string
	Interval      time.Duration
	Logger        *slog.Logger
	// PromRegistry defaults to a private registry when nil
	PromRegistry prometheus.Registerer
}

// Indexer re-scans the contract logs and stores the latest reconstruction
type Indexer struct {
	source  massa.EventSource
	store   Store
	rec     *eventlog.Reconstructor
	config  Config
	metrics metrics
	// one pass at a time, whether from Run or an explicit resync
	mu sync.Mutex
}

func New(source massa.EventSource, store Store, cfg Config) *Indexer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PromRegistry == nil {
		cfg.PromRegistry = prometheus.NewRegistry()
	}
	idx := &Indexer{
		source: source,
		store:  store,
		config: cfg,
	}
	idx.metrics.init(cfg.PromRegistry)
	idx.rec = eventlog.New(cfg.Logger.With("component", "eventlog"))
	idx.rec.OnMalformed = func(entity string) {
		idx.metrics.malformed.WithLabelValues(entity).Inc()
	}
	return idx
}

// Reconstructor exposes the indexer's reconstructor so callers share its
// malformed-payload accounting.
func (i *Indexer) Reconstructor() *eventlog.Reconstructor {
	return i.rec
}

// SyncOnce performs one full pass: fetch, reconstruct, store. The returned
// run describes the pass whether or not it succeeded.
func (i *Indexer) SyncOnce(ctx context.Context) (models.SyncRun, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	start := time.Now()
	run := models.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: start.UTC(),
	}
	logger := i.config.Logger.With("run_id", run.ID)
	logger.Debug("sync started")

	if err := i.store.RecordSyncRun(ctx, run); err != nil {
		return run, err
	}

	snap, events, err := i.scan(ctx)
	if err == nil {
		err = i.store.ReplaceSnapshot(ctx, snap)
	}

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Events = events
	if err != nil {
		run.Error = err.Error()
	} else {
		run.Polls = len(snap.Polls)
		run.Projects = len(snap.Projects)
	}
	// Record with a fresh context so a cancelled pass still closes its row
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recErr := i.store.RecordSyncRun(recordCtx, run); recErr != nil {
		logger.Error("failed to record sync run", "error", recErr)
	}

	i.metrics.syncDuration.Observe(time.Since(start).Seconds())
	i.metrics.eventsScanned.Add(float64(events))
	if err != nil {
		i.metrics.syncRuns.WithLabelValues("failure").Inc()
		logger.Warn("sync failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return run, err
	}
	i.metrics.syncRuns.WithLabelValues("success").Inc()
	i.metrics.polls.Set(float64(run.Polls))
	i.metrics.projects.Set(float64(run.Projects))
	i.metrics.lastSuccess.Set(float64(finished.Unix()))
	logger.Info("sync completed",
		"events", run.Events,
		"polls", run.Polls,
		"projects", run.Projects,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return run, nil
}

// scan fetches both logs concurrently and reconstructs a snapshot
func (i *Indexer) scan(ctx context.Context) (models.Snapshot, int, error) {
	var pollEvents, tokenEvents []massa.Event

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := i.source.GetEvents(gctx, i.config.PollsContract)
		if err != nil {
			return fmt.Errorf("failed to fetch polls log: %w", err)
		}
		pollEvents = events
		return nil
	})
	tokenContract := i.config.TokenContract
	if tokenContract != "" && tokenContract != i.config.PollsContract {
		g.Go(func() error {
			events, err := i.source.GetEvents(gctx, tokenContract)
			if err != nil {
				return fmt.Errorf("failed to fetch token log: %w", err)
			}
			tokenEvents = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, len(pollEvents) + len(tokenEvents), err
	}
	if tokenContract != "" && tokenContract == i.config.PollsContract {
		tokenEvents = pollEvents
	}

	snap := models.Snapshot{
		Polls:    i.rec.Polls(pollEvents),
		Projects: i.rec.Projects(pollEvents),
		Balances: i.rec.Balances(tokenEvents),
	}
	reserves, err := i.rec.Reserves(tokenEvents)
	switch {
	case err == nil:
		snap.Reserves = &reserves
	case !errors.Is(err, eventlog.ErrNotFound):
		return models.Snapshot{}, 0, err
	}

	events := len(pollEvents)
	if tokenContract != i.config.PollsContract {
		events += len(tokenEvents)
	}
	return snap, events, nil
}

// Run syncs immediately and then every Interval until ctx is done. Failed
// passes are logged and retried on the next tick.
func (i *Indexer) Run(ctx context.Context) error {
	logger := i.config.Logger
	logger.Info("indexer started",
		"polls_contract", i.config.PollsContract,
		"token_contract", i.config.TokenContract,
		"interval", i.config.Interval.String(),
	)

	ticker := time.NewTicker(i.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := i.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Debug("will retry on next tick", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("indexer stopped")
			return nil
		case <-ticker.C:
		}
	}
}
