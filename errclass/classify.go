// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package errclass

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/massa-polls/confirm"
	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/massa"
)

type Kind string

const (
	KindWallet      Kind = "wallet"
	KindTransaction Kind = "transaction"
	KindNotFound    Kind = "not_found"
	KindTimeout     Kind = "timeout"
	KindUnknown     Kind = "unknown"
)

// Classification is the user-facing explanation of an error
type Classification struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

type rule struct {
	substrings []string
	class      Classification
}

// rules are checked in order against the lower-cased error message
var rules = []rule{
	{[]string{"insufficient balance", "not enough balance", "insufficient funds"}, Classification{
		Kind:       KindTransaction,
		Title:      "Insufficient balance",
		Message:    "Your wallet does not hold enough MASSA to cover the amount and fees.",
		Suggestion: "Top up your wallet or lower the amount, then try again.",
	}},
	{[]string{"already voted"}, Classification{
		Kind:       KindTransaction,
		Title:      "Already voted",
		Message:    "This address has already voted on this poll.",
		Suggestion: "Each address can vote once. Check the results instead.",
	}},
	{[]string{"not active", "poll has ended", "poll is closed"}, Classification{
		Kind:       KindTransaction,
		Title:      "Poll not active",
		Message:    "The poll is not accepting votes right now.",
		Suggestion: "Check the poll's start and end time.",
	}},
	{[]string{"fee too low", "insufficient fee"}, Classification{
		Kind:       KindTransaction,
		Title:      "Fee too low",
		Message:    "The network rejected the operation because the fee was too low.",
		Suggestion: "Increase the fee and submit again.",
	}},
	{[]string{"user rejected", "rejected by user", "signature rejected", "request denied", "signature denied"}, Classification{
		Kind:       KindWallet,
		Title:      "Signature rejected",
		Message:    "The transaction was not signed.",
		Suggestion: "Approve the request in your wallet to continue.",
	}},
	{[]string{"wallet not connected", "no wallet", "wallet not found", "not connected"}, Classification{
		Kind:       KindWallet,
		Title:      "Wallet not connected",
		Message:    "No wallet connection is available.",
		Suggestion: "Connect your wallet and try again.",
	}},
	{[]string{"poll not found", "poll does not exist"}, Classification{
		Kind:       KindNotFound,
		Title:      "Poll not found",
		Message:    "No poll with this id exists on the contract.",
		Suggestion: "Check the poll id or wait for the creation to be confirmed.",
	}},
	{[]string{"function not found", "missing function"}, Classification{
		Kind:       KindNotFound,
		Title:      "Function not found",
		Message:    "The contract does not expose the requested function.",
		Suggestion: "Check that the configured contract address is the polls contract.",
	}},
	{[]string{"contract not found", "address not found", "no bytecode"}, Classification{
		Kind:       KindNotFound,
		Title:      "Contract not found",
		Message:    "No contract is deployed at the configured address.",
		Suggestion: "Check the contract address and the network.",
	}},
	{[]string{"not found"}, Classification{
		Kind:       KindNotFound,
		Title:      "Not found",
		Message:    "The requested record does not exist.",
		Suggestion: "Check the id and try again.",
	}},
}

var unexpected = Classification{
	Kind:       KindUnknown,
	Title:      "Unexpected error",
	Message:    "Something went wrong.",
	Suggestion: "Please try again.",
}

var timeout = Classification{
	Kind:       KindTimeout,
	Title:      "Still waiting for confirmation",
	Message:    "The operation was not observed on chain within the wait limit.",
	Suggestion: "It may still be included. Refresh in a moment.",
}

// Classify maps an error to a user-facing title, message, and suggestion.
// Typed errors are checked first, then known message substrings.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}
	switch {
	case errors.Is(err, confirm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return timeout
	case errors.Is(err, massa.ErrNotConnected):
		return Classification{
			Kind:       KindWallet,
			Title:      "Node not connected",
			Message:    "The service is not connected to a Massa node.",
			Suggestion: "Try again shortly.",
		}
	}

	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, s := range r.substrings {
			if strings.Contains(msg, s) {
				return r.class
			}
		}
	}

	if errors.Is(err, eventlog.ErrNotFound) {
		return rules[len(rules)-1].class
	}

	var callErr *massa.CallError
	if errors.As(err, &callErr) {
		return Classification{
			Kind:       KindTransaction,
			Title:      "Contract call failed",
			Message:    "The contract rejected the call: " + callErr.Message,
			Suggestion: "Check the call parameters and try again.",
		}
	}
	var rpcErr *massa.RPCError
	if errors.As(err, &rpcErr) {
		return Classification{
			Kind:       KindUnknown,
			Title:      "Node error",
			Message:    "The Massa node returned an error: " + rpcErr.Message,
			Suggestion: "Try again shortly, or switch to another node.",
		}
	}
	return unexpected
}

// HTTPStatus is the API status code for a kind
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindTransaction:
		return http.StatusUnprocessableEntity
	case KindWallet:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
