// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types for the API.

# Domain Types

Records reconstructed from the contract event log:

  - Poll: title, options, vote tally, schedule, status
  - Economics: optional funding fields attached to a poll
  - Project: a named group of polls
  - Reserves: swap pool reserves (MASSA and token)
  - Snapshot: one full reconstruction, written to the store as a unit
  - SyncRun: bookkeeping for one indexer pass

# Request Types

  - AwaitPollRequest: min_votes

# Response Types

  - PollResultsResponse: per-option votes and shares, leader
  - ProjectWithPolls: project plus its resolved polls
  - BalanceResponse: address, amount, display
  - QuoteResponse: swap quote
  - ResyncResponse: run
  - ErrorResponse: error, message, title, suggestion

# Constants

Poll status codes as emitted by the contract:

	StatusActive      = 0
	StatusClosed      = 1
	StatusEnded       = 2
	StatusForClaiming = 3
*/
package models
