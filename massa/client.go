// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package massa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNotConnected = errors.New("massa client not connected")
	ErrNoResult     = errors.New("empty result from node")
)

const DefaultRequestTimeout = 15 * time.Second

// EventSource is the read side of the node that the indexer and the
// confirmation waiter depend on.
type EventSource interface {
	GetEvents(ctx context.Context, emitter string) ([]Event, error)
}

type Config struct {
	URL            string
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client talks JSON-RPC to a Massa node. It must be connected before use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	nextID atomic.Uint64

	mu        sync.RWMutex
	connected bool
	status    NodeStatus
}

func NewClient(cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With("component", "massa"),
	}
}

// Connect checks the node is reachable and records its status
func (c *Client) Connect(ctx context.Context) error {
	var status NodeStatus
	if err := c.call(ctx, "get_status", []any{}, &status); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
	}
	c.mu.Lock()
	c.connected = true
	c.status = status
	c.mu.Unlock()
	c.logger.Info("connected to node",
		"url", c.cfg.URL,
		"version", status.Version,
		"chain_id", status.ChainID,
	)
	return nil
}

// Close disconnects the client. Later calls fail with ErrNotConnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	c.connected = false
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Status returns the node status captured by Connect
func (c *Client) Status() NodeStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// GetEvents fetches the full event log emitted by a contract address
func (c *Client) GetEvents(ctx context.Context, emitter string) ([]Event, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	filter := eventFilter{EmitterAddress: emitter}
	var events []Event
	if err := c.call(ctx, "get_filtered_sc_output_event", []any{filter}, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", emitter, err)
	}
	c.logger.Debug("fetched events", "emitter", emitter, "count", len(events))
	return events, nil
}

// ReadOnlyCall executes a contract function without submitting an operation
func (c *Client) ReadOnlyCall(ctx context.Context, call ReadOnlyCall) (*ReadOnlyResult, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	if call.MaxGas == 0 {
		call.MaxGas = DefaultReadOnlyMaxGas
	}
	var results []ReadOnlyResult
	if err := c.call(ctx, "execute_read_only_call", []any{[]ReadOnlyCall{call}}, &results); err != nil {
		return nil, fmt.Errorf("read-only call %s.%s failed: %w", call.TargetAddress, call.TargetFunction, err)
	}
	if len(results) == 0 {
		return nil, ErrNoResult
	}
	res := results[0]
	if res.Result.Error != "" {
		return &res, &CallError{Function: call.TargetFunction, Message: res.Result.Error}
	}
	return &res, nil
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("node returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return ErrNoResult
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
