// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package errclass

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/massa-polls/confirm"
	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/massa"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err   error
		kind  Kind
		title string
	}{
		{errors.New("Insufficient Balance for operation"), KindTransaction, "Insufficient balance"},
		{errors.New("runtime error: Already voted on poll 3"), KindTransaction, "Already voted"},
		{errors.New("Poll is not active"), KindTransaction, "Poll not active"},
		{errors.New("fee too low: 0.001"), KindTransaction, "Fee too low"},
		{errors.New("User rejected the request"), KindWallet, "Signature rejected"},
		{errors.New("wallet: request denied"), KindWallet, "Signature rejected"},
		{errors.New("open /var/lib/polls.db: permission denied"), KindUnknown, "Unexpected error"},
		{errors.New("wallet not connected"), KindWallet, "Wallet not connected"},
		{errors.New("Poll not found: 12"), KindNotFound, "Poll not found"},
		{&massa.CallError{Function: "getPoll", Message: "function not found"}, KindNotFound, "Function not found"},
		{&massa.RPCError{Code: -32000, Message: "contract not found"}, KindNotFound, "Contract not found"},
		{fmt.Errorf("poll 3: %w", eventlog.ErrNotFound), KindNotFound, "Not found"},
		{fmt.Errorf("poll 3: %w", confirm.ErrTimeout), KindTimeout, "Still waiting for confirmation"},
		{fmt.Errorf("fetch: %w", massa.ErrNotConnected), KindWallet, "Node not connected"},
		{fmt.Errorf("read-only call: %w", &massa.CallError{Function: "vote", Message: "assertion failed"}), KindTransaction, "Contract call failed"},
		{&massa.RPCError{Code: -32603, Message: "internal error"}, KindUnknown, "Node error"},
		{errors.New("segfault in the matrix"), KindUnknown, "Unexpected error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c := Classify(tt.err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.title, c.Title)
			assert.NotEmpty(t, c.Message)
			assert.NotEmpty(t, c.Suggestion)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, Classification{}, Classify(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(KindTimeout))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(KindTransaction))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(KindWallet))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindUnknown))
}
