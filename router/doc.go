// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Massa Polls API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		Store:    store,
		Waiter:   waiter,
		Syncer:   idx,
		Registry: registry,
		Config:   cfg,
	})

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Polls (served from the index):

	GET  /polls?active=true     - List polls, newest first
	GET  /polls/{id}            - Poll with options and tally
	GET  /polls/{id}/results    - Shares and leader
	POST /polls/{id}/await      - Wait for the poll to land, then resync

Projects:

	GET /projects      - List projects
	GET /projects/{id} - Project with its polls

Token and pool:

	GET /balances/{address} - Token balance
	GET /swap/reserves      - Pool reserves
	GET /swap/quote         - Swap quote (amount= or output=, direction=)

Indexer:

	GET  /sync/status  - Latest indexer pass
	POST /admin/resync - Run a pass now (requires X-Admin-Key)

Every API route is wrapped with request logging and the HTTP metrics.
*/
package router
