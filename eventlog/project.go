// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eventlog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

// ParseProject parses id|name|description|creator|createdAt|pollId,pollId,...
// The poll id list may be missing or empty.
func (r *Reconstructor) ParseProject(payload string) (models.Project, error) {
	tokens := strings.Split(payload, "|")
	if len(tokens) < 5 {
		return models.Project{}, fmt.Errorf("%w: %d segments, need at least 5", errMalformed, len(tokens))
	}
	id, err := CanonicalID(tokens[0])
	if err != nil {
		return models.Project{}, err
	}
	creator := strings.TrimSpace(tokens[3])
	if !IsAddress(creator) {
		return models.Project{}, fmt.Errorf("%w: creator %q is not an address", errMalformed, creator)
	}
	createdAt, err := strconv.ParseInt(strings.TrimSpace(tokens[4]), 10, 64)
	if err != nil {
		return models.Project{}, fmt.Errorf("%w: created at: %v", errMalformed, err)
	}

	pollIDs := []string{}
	if len(tokens) > 5 {
		for _, part := range strings.Split(strings.Join(tokens[5:], ","), ",") {
			if pid, err := CanonicalID(part); err == nil {
				pollIDs = append(pollIDs, pid)
			}
		}
	}

	return models.Project{
		ID:          id,
		Name:        tokens[1],
		Description: tokens[2],
		Creator:     creator,
		CreatedAt:   createdAt,
		PollIDs:     pollIDs,
	}, nil
}

// Projects reconstructs every "Project <id>:" record, latest emission wins,
// sorted by descending numeric id.
func (r *Reconstructor) Projects(events []massa.Event) []models.Project {
	byID := map[string]models.Project{}
	for _, evt := range ordered(events) {
		label, labelID, payload, ok := labeled(strings.TrimSpace(evt.Data))
		if !ok || !hasLabel(label, "Project") {
			continue
		}
		project, err := r.ParseProject(payload)
		if err != nil {
			r.skip(EntityProject, evt.Data, err)
			continue
		}
		if !sameID(labelID, project.ID) {
			r.skip(EntityProject, evt.Data, fmt.Errorf("%w: label id %s does not match payload id %s", errMalformed, labelID, project.ID))
			continue
		}
		byID[project.ID] = project
	}

	projects := make([]models.Project, 0, len(byID))
	for _, p := range byID {
		projects = append(projects, p)
	}
	sortByIDDesc(projects, func(p models.Project) string { return p.ID })
	return projects
}

// Project returns the latest record for one project id
func (r *Reconstructor) Project(events []massa.Event, id string) (models.Project, error) {
	for _, p := range r.Projects(events) {
		if sameID(id, p.ID) {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}
