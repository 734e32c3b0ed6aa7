// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/massa-polls/models"
	"github.com/danielhkuo/massa-polls/testutil"
)

func seedPolls() models.Snapshot {
	now := time.Now().UnixMilli()
	return models.Snapshot{
		Polls: []models.Poll{
			{
				ID: "12", Title: "Open poll", Options: []string{"Red", "Blue", "Green"}, Votes: []int64{3, 5, 1},
				Creator: testutil.CreatorAddr, StartTime: now - 1000, EndTime: now + 3_600_000, Status: models.StatusActive,
			},
			{
				ID: "3", Title: "Closed poll", Options: []string{"Yes", "No"}, Votes: []int64{0, 0},
				Creator: testutil.CreatorAddr, StartTime: now - 7_200_000, EndTime: now - 3_600_000, Status: models.StatusClosed,
				Economics: &models.Economics{FundingType: models.FundingCommunity, RewardPool: 5_000_000_000},
			},
			{
				ID: "4", Title: "Tied poll", Options: []string{"A", "B"}, Votes: []int64{2, 2},
				Creator: testutil.CreatorAddr, StartTime: now - 1000, EndTime: now + 3_600_000, Status: models.StatusEnded,
			},
		},
	}
}

func TestListPolls(t *testing.T) {
	store := testutil.SetupTestDB(t)
	testutil.SeedSnapshot(t, store, seedPolls())
	handler := NewPollHandler(store)

	t.Run("all polls by descending id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls", nil)
		w := httptest.NewRecorder()

		handler.ListPolls(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var polls []models.Poll
		testutil.AssertJSON(t, w, &polls)
		if len(polls) != 3 {
			t.Fatalf("Expected 3 polls, got %d", len(polls))
		}
		want := []string{"12", "4", "3"}
		for i, id := range want {
			if polls[i].ID != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, polls[i].ID)
			}
		}
		if polls[2].Economics == nil || polls[2].Economics.RewardPool != 5_000_000_000 {
			t.Errorf("Expected economics on poll 3, got %+v", polls[2].Economics)
		}
	})

	t.Run("active only", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls?active=true", nil)
		w := httptest.NewRecorder()

		handler.ListPolls(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var polls []models.Poll
		testutil.AssertJSON(t, w, &polls)
		if len(polls) != 1 || polls[0].ID != "12" || !polls[0].IsActive {
			t.Errorf("Expected only poll 12, got %+v", polls)
		}
	})

	t.Run("invalid active flag", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls?active=maybe", nil)
		w := httptest.NewRecorder()

		handler.ListPolls(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestListPolls_Empty(t *testing.T) {
	store := testutil.SetupTestDB(t)
	handler := NewPollHandler(store)

	req := httptest.NewRequest("GET", "/polls", nil)
	w := httptest.NewRecorder()

	handler.ListPolls(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	// An empty list, not null
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}
}

func TestGetPoll(t *testing.T) {
	store := testutil.SetupTestDB(t)
	testutil.SeedSnapshot(t, store, seedPolls())
	handler := NewPollHandler(store)

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantTitle  string
	}{
		{"existing poll", "12", http.StatusOK, "Open poll"},
		{"leading zeros", "0012", http.StatusOK, "Open poll"},
		{"unknown poll", "99", http.StatusNotFound, ""},
		{"non-numeric id", "abc", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handler.GetPoll(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var poll models.Poll
			testutil.AssertJSON(t, w, &poll)
			if poll.Title != tt.wantTitle {
				t.Errorf("Expected title %q, got %q", tt.wantTitle, poll.Title)
			}
			if len(poll.Votes) != len(poll.Options) {
				t.Errorf("Votes and options differ in length: %d vs %d", len(poll.Votes), len(poll.Options))
			}
		})
	}
}

func TestGetResults(t *testing.T) {
	store := testutil.SetupTestDB(t)
	testutil.SeedSnapshot(t, store, seedPolls())
	handler := NewPollHandler(store)

	get := func(id string) models.PollResultsResponse {
		t.Helper()
		req := httptest.NewRequest("GET", "/polls/"+id+"/results", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.GetResults(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PollResultsResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	t.Run("shares and leader", func(t *testing.T) {
		resp := get("12")
		if resp.TotalVotes != 9 {
			t.Errorf("Expected 9 total votes, got %d", resp.TotalVotes)
		}
		if resp.Leader == nil || resp.Leader.Label != "Blue" {
			t.Errorf("Expected Blue to lead, got %+v", resp.Leader)
		}
		var sum float64
		for _, o := range resp.Options {
			sum += o.Share
		}
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("Shares should sum to 1, got %f", sum)
		}
	})

	t.Run("no votes has no leader", func(t *testing.T) {
		resp := get("3")
		if resp.Leader != nil {
			t.Errorf("Expected no leader, got %+v", resp.Leader)
		}
		for _, o := range resp.Options {
			if o.Share != 0 {
				t.Errorf("Expected zero share, got %f", o.Share)
			}
		}
	})

	t.Run("tie goes to first option", func(t *testing.T) {
		resp := get("4")
		if resp.Leader == nil || resp.Leader.Index != 0 {
			t.Errorf("Expected option 0 to lead a tie, got %+v", resp.Leader)
		}
	})

	t.Run("unknown poll", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/77/results", nil)
		req.SetPathValue("id", "77")
		w := httptest.NewRecorder()
		handler.GetResults(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}
