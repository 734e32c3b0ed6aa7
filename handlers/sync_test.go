// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/massa-polls/auth"
	"github.com/danielhkuo/massa-polls/indexer"
	"github.com/danielhkuo/massa-polls/models"
	"github.com/danielhkuo/massa-polls/testutil"
)

func TestSyncFlow(t *testing.T) {
	store := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	src := testutil.NewFakeSource()
	src.Emit(testutil.PollsContract,
		testutil.OpenPollLine(1, "First", []string{"A", "B"}, []int64{1, 1}),
		testutil.OpenPollLine(2, "Second", []string{"X", "Y"}, []int64{0, 4}),
	)
	idx := indexer.New(src, store, indexer.Config{
		PollsContract: cfg.PollsContract,
		TokenContract: cfg.TokenContract,
	})
	handler := NewSyncHandler(store, idx, cfg)
	adminKey := auth.GenerateAdminKey(auth.ScopeResync, cfg.AdminKeySalt)

	t.Run("status before any run", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetStatus(w, httptest.NewRequest("GET", "/sync/status", nil))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("resync without key", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Resync(w, testutil.MakeRequest("POST", "/admin/resync", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("resync with wrong key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := testutil.MakeRequest("POST", "/admin/resync", nil, map[string]string{
			auth.AdminKeyHeader: "not-the-key",
		})
		handler.Resync(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("resync with admin key", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := testutil.MakeRequest("POST", "/admin/resync", nil, map[string]string{
			auth.AdminKeyHeader: adminKey,
		})
		handler.Resync(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ResyncResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Run.ID == "" || resp.Run.Polls != 2 {
			t.Errorf("Unexpected run: %+v", resp.Run)
		}
	})

	t.Run("status after run", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetStatus(w, httptest.NewRequest("GET", "/sync/status", nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var run models.SyncRun
		testutil.AssertJSON(t, w, &run)
		if run.FinishedAt == nil || run.Error != "" {
			t.Errorf("Expected a finished, successful run, got %+v", run)
		}
	})

	t.Run("resync when node is down", func(t *testing.T) {
		src.Fail(errors.New("dial tcp: connection refused"))
		defer src.Fail(nil)

		w := httptest.NewRecorder()
		req := testutil.MakeRequest("POST", "/admin/resync", nil, map[string]string{
			auth.AdminKeyHeader: adminKey,
		})
		handler.Resync(w, req)

		testutil.AssertStatus(t, w, http.StatusInternalServerError)
	})
}
