// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/models"
)

// PollWaiter blocks until a poll shows up in the live contract log
type PollWaiter interface {
	WaitForPoll(ctx context.Context, emitter, id string) (models.Poll, error)
	WaitForVotes(ctx context.Context, emitter, id string, minTotal int64) (models.Poll, error)
}

// Syncer runs one indexer pass
type Syncer interface {
	SyncOnce(ctx context.Context) (models.SyncRun, error)
}

type ConfirmHandler struct {
	waiter PollWaiter
	syncer Syncer
	cfg    cliparse.Config
}

func NewConfirmHandler(waiter PollWaiter, syncer Syncer, cfg cliparse.Config) *ConfirmHandler {
	return &ConfirmHandler{waiter: waiter, syncer: syncer, cfg: cfg}
}

// AwaitPoll handles POST /polls/{id}/await
// The client calls this after submitting a create or vote transaction. The
// handler polls the live log until the poll appears (or reaches min_votes),
// then refreshes the store so subsequent reads see it.
func (h *ConfirmHandler) AwaitPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "poll")
	if !ok {
		return
	}

	// Body is optional
	var req models.AwaitPollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MinVotes < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_votes must not be negative")
		return
	}

	var (
		poll models.Poll
		err  error
	)
	if req.MinVotes > 0 {
		poll, err = h.waiter.WaitForVotes(r.Context(), h.cfg.PollsContract, pollID, req.MinVotes)
	} else {
		poll, err = h.waiter.WaitForPoll(r.Context(), h.cfg.PollsContract, pollID)
	}
	if err != nil {
		slog.Warn("poll not confirmed", "poll_id", pollID, "min_votes", req.MinVotes, "error", err)
		middleware.ClassifiedError(w, err)
		return
	}

	slog.Info("poll confirmed", "poll_id", pollID, "total_votes", poll.TotalVotes())

	if _, err := h.syncer.SyncOnce(r.Context()); err != nil {
		// The confirmation stands; the next scheduled pass will catch up
		slog.Warn("resync after confirmation failed", "poll_id", pollID, "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}
