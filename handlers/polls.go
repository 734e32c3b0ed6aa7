// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/models"
)

type PollHandler struct {
	store *db.Store
}

func NewPollHandler(store *db.Store) *PollHandler {
	return &PollHandler{store: store}
}

// pathID reads and canonicalizes the {id} path value. It writes a 400 and
// returns false when the id is not numeric.
func pathID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, what+" id is required")
		return "", false
	}
	id, err := eventlog.CanonicalID(raw)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, what+" id must be numeric")
		return "", false
	}
	return id, true
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		activeOnly = b
	}

	polls, err := h.store.ListPolls(r.Context(), activeOnly)
	if err != nil {
		slog.Error("failed to list polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, polls)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "poll")
	if !ok {
		return
	}

	poll, err := h.store.GetPoll(r.Context(), pollID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to get poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// GetResults handles GET /polls/{id}/results
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r, "poll")
	if !ok {
		return
	}

	poll, err := h.store.GetPoll(r.Context(), pollID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to get poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, computeResults(poll))
}

// computeResults derives per-option shares and the leading option. Ties
// go to the lower index; there is no leader before the first vote.
func computeResults(poll models.Poll) models.PollResultsResponse {
	total := poll.TotalVotes()
	resp := models.PollResultsResponse{
		Poll:       poll,
		Options:    make([]models.OptionResult, len(poll.Options)),
		TotalVotes: total,
	}

	leader := -1
	for i, label := range poll.Options {
		var votes int64
		if i < len(poll.Votes) {
			votes = poll.Votes[i]
		}
		opt := models.OptionResult{Index: i, Label: label, Votes: votes}
		if total > 0 {
			opt.Share = float64(votes) / float64(total)
		}
		resp.Options[i] = opt
		if total > 0 && (leader < 0 || votes > resp.Options[leader].Votes) {
			leader = i
		}
	}
	if leader >= 0 {
		l := resp.Options[leader]
		resp.Leader = &l
	}
	return resp
}
