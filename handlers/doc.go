// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Massa Polls API.

# Handler Types

Each handler is a struct with store and config dependencies:

  - PollHandler: Poll listing, detail and tallies
  - ProjectHandler: Projects and the polls they group
  - SwapHandler: Token balances, pool reserves and swap quotes
  - ConfirmHandler: Waiting for a submitted transaction to show up in the log
  - SyncHandler: Indexer status and admin-triggered resync

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(store)
	swapHandler := handlers.NewSwapHandler(store, cfg)

Reads are served from the store the indexer fills. Only ConfirmHandler
talks to the node directly, through a PollWaiter.

# Poll Ids

Poll and project ids are decimal strings. Leading zeros are stripped, so
/polls/007 and /polls/7 name the same poll. Anything else is a 400.

# Amounts

Balances and reserves are reported in base units. Quote inputs and outputs
are human decimal strings, converted with the amm package:

	GET /swap/quote?amount=10                       → MASSA in, tokens out
	GET /swap/quote?amount=10&direction=token_to_massa
	GET /swap/quote?output=9.5                      → input needed for 9.5 out

# Confirmations

	POST /polls/{id}/await {"min_votes": 3}

blocks until the poll is in the contract log (and has at least min_votes
votes), then resyncs the store. A timeout is reported as 504 with a
user-facing explanation from errclass.

# Admin

POST /admin/resync requires the X-Admin-Key header generated by
auth.GenerateAdminKey for the resync scope.
*/
package handlers
