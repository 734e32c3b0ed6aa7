// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

// Addresses used across tests
const (
	PollsContract = "AS12qzyNBDnwqq2vYwvUMHzrtMkVp6nQGJJ3TETVKF5HCd4yymzJP"
	TokenContract = "AS1Sbhb6GA4Fy5fEJ4dvjHPTD1kS5bpsPqKnhwDKRpvdxXtqZFqfG"
	CreatorAddr   = "AU12Yd4kCcsizeeTEK9AZyBnuJNZ1cpp99XfCZ2sAGT1abcd"
	HolderAddr    = "AU1qDAxGJ387ETi9JRQzZWSPKYq4YPXrFvdiE4VoXUaiAt38JFEC"
)

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db.NewStore(conn)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	cfg := cliparse.Defaults()
	cfg.DatabaseURL = ":memory:"
	cfg.AdminKeySalt = "test-admin-salt"
	cfg.PollsContract = PollsContract
	cfg.TokenContract = TokenContract
	cfg.ConfirmInterval = 5 * time.Millisecond
	cfg.ConfirmTimeout = 200 * time.Millisecond
	return cfg
}

// PollLine renders a labeled poll log line the way the contract emits it
func PollLine(id int, title string, options []string, votes []int64, start, end int64, status models.PollStatus) string {
	tallies := make([]string, len(votes))
	for i, v := range votes {
		tallies[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("Poll %d: %d|%s|A test poll|%s|%s|%d|%d|%d|%s",
		id, id, title, strings.Join(options, "||"), CreatorAddr, start, end, int(status), strings.Join(tallies, ","))
}

// OpenPollLine is a poll that is active for the next day
func OpenPollLine(id int, title string, options []string, votes []int64) string {
	now := time.Now().UnixMilli()
	return PollLine(id, title, options, votes, now-60_000, now+86_400_000, models.StatusActive)
}

// FakeSource is an in-memory massa.EventSource whose logs tests can append to
type FakeSource struct {
	mu    sync.Mutex
	logs  map[string][]massa.Event
	err   error
	calls int
}

func NewFakeSource() *FakeSource {
	return &FakeSource{logs: map[string][]massa.Event{}}
}

// Emit appends lines to an emitter's log, each in its own slot
func (s *FakeSource) Emit(emitter string, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		period := uint64(len(s.logs[emitter]) + 1)
		s.logs[emitter] = append(s.logs[emitter], massa.Event{
			Context: massa.EventContext{Slot: massa.Slot{Period: period}, IsFinal: true},
			Data:    l,
		})
	}
}

// Fail makes every following GetEvents call return err; nil clears it
func (s *FakeSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *FakeSource) GetEvents(ctx context.Context, emitter string) ([]massa.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]massa.Event, len(s.logs[emitter]))
	copy(out, s.logs[emitter])
	return out, nil
}

func (s *FakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SeedSnapshot writes a snapshot straight into the store
func SeedSnapshot(t *testing.T, store *db.Store, snap models.Snapshot) {
	t.Helper()
	if err := store.ReplaceSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
