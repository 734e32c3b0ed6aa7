// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/handlers"
	"github.com/danielhkuo/massa-polls/middleware"
)

// Deps are the long-lived components the routes are served from
type Deps struct {
	Store  *db.Store
	Waiter handlers.PollWaiter
	Syncer handlers.Syncer
	// Registry receives the HTTP metrics and is served on /metrics
	Registry *prometheus.Registry
	Config   cliparse.Config
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()
	cfg := deps.Config
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(deps.Store)
	projectHandler := handlers.NewProjectHandler(deps.Store)
	swapHandler := handlers.NewSwapHandler(deps.Store, cfg)
	confirmHandler := handlers.NewConfirmHandler(deps.Waiter, deps.Syncer, cfg)
	syncHandler := handlers.NewSyncHandler(deps.Store, deps.Syncer, cfg)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(httpMetrics.Instrument(pattern, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Polls (public, served from the index)
	handle("GET /polls", pollHandler.ListPolls)
	handle("GET /polls/{id}", pollHandler.GetPoll)
	handle("GET /polls/{id}/results", pollHandler.GetResults)

	// Confirmation of a submitted transaction (reads the live log)
	handle("POST /polls/{id}/await", confirmHandler.AwaitPoll)

	// Projects
	handle("GET /projects", projectHandler.ListProjects)
	handle("GET /projects/{id}", projectHandler.GetProject)

	// Token and pool
	handle("GET /balances/{address}", swapHandler.GetBalance)
	handle("GET /swap/reserves", swapHandler.GetReserves)
	handle("GET /swap/quote", swapHandler.GetQuote)

	// Indexer
	handle("GET /sync/status", syncHandler.GetStatus)
	handle("POST /admin/resync", syncHandler.Resync)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("massa-polls API v1"))
	})

	return mux
}
