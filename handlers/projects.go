// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/models"
)

type ProjectHandler struct {
	store *db.Store
}

func NewProjectHandler(store *db.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, projects)
}

// GetProject handles GET /projects/{id}
// Linked polls are resolved; ids the log never produced a poll for are
// left out of the polls list but kept in poll_ids.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "project")
	if !ok {
		return
	}

	project, err := h.store.GetProject(r.Context(), projectID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		slog.Error("failed to get project", "error", err, "project_id", projectID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	polls := []models.Poll{}
	for _, pollID := range project.PollIDs {
		poll, err := h.store.GetPoll(r.Context(), pollID)
		if errors.Is(err, db.ErrNotFound) {
			slog.Debug("project links unknown poll", "project_id", projectID, "poll_id", pollID)
			continue
		}
		if err != nil {
			slog.Error("failed to get project poll", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		polls = append(polls, poll)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProjectWithPolls{
		Project: project,
		Polls:   polls,
	})
}
