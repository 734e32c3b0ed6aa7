// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/massa-polls/auth"
	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/models"
)

type SyncHandler struct {
	store  *db.Store
	syncer Syncer
	cfg    cliparse.Config
}

func NewSyncHandler(store *db.Store, syncer Syncer, cfg cliparse.Config) *SyncHandler {
	return &SyncHandler{store: store, syncer: syncer, cfg: cfg}
}

// GetStatus handles GET /sync/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.LatestSyncRun(r.Context())
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No sync has run yet")
		return
	}
	if err != nil {
		slog.Error("failed to get sync status", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, run)
}

// Resync handles POST /admin/resync
func (h *SyncHandler) Resync(w http.ResponseWriter, r *http.Request) {
	// Validate admin key
	if err := auth.ValidateRequest(r, auth.ScopeResync, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	run, err := h.syncer.SyncOnce(r.Context())
	if err != nil {
		slog.Warn("manual resync failed", "run_id", run.ID, "error", err)
		middleware.ClassifiedError(w, err)
		return
	}

	slog.Info("manual resync completed", "run_id", run.ID, "polls", run.Polls)

	middleware.JSONResponse(w, http.StatusOK, models.ResyncResponse{Run: run})
}
