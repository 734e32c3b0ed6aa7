// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Massa Polls indexer and API.

The polls contract on Massa records everything it does as free-text event
lines. This service rebuilds polls, projects, token balances and pool
reserves from that log, serves them over HTTP, and waits for submitted
transactions to show up.

# Starting the Server

	MASSA_RPC_URL=https://buildnet.massa.net/api/v2 \
	POLLS_CONTRACT=AS12... ADMIN_KEY_SALT=... \
	massa-polls serve -d polls.db

Or against PostgreSQL:

	massa-polls serve -t postgres -d "postgres://..."

# Commands

	serve             Indexer plus HTTP API
	polls list        Polls from the live log (--active)
	polls show <id>   One poll with its tally
	projects list     Projects and their polls
	balance <addr>    Poll token balance
	quote <amount>    Swap quote (--direction)
	await <poll-id>   Wait for a poll or for --min-votes
	call <function>   Read-only contract call
	admin-key         Print the X-Admin-Key for /admin/resync

# Configuration

Settings are layered: defaults, the YAML file (--config or CONFIG_FILE), a
.env file, the environment, then flags. Required for every command:

  - MASSA_RPC_URL (--rpc-url): node JSON-RPC endpoint
  - POLLS_CONTRACT (--polls-contract): polls contract address

Required for serve:

  - DATABASE_URL (-d): sqlite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - TOKEN_CONTRACT: token and pool contract, enables balances and quotes
  - SYNC_INTERVAL, CONFIRM_INTERVAL, CONFIRM_TIMEOUT, REQUEST_TIMEOUT
  - TOKEN_DECIMALS (default 9), SPREAD_BPS (default 250)

# Architecture

  - massa: JSON-RPC client with explicit Connect/Close
  - eventlog: Reconstruction of records from log lines
  - amm: Base-unit conversion and constant-product quotes
  - confirm: Polling the log until a transaction lands
  - errclass: User-facing error classification
  - indexer: Periodic rescan into the store, with metrics
  - db: Schema and store (sqlite or PostgreSQL)
  - handlers, router, middleware: HTTP API
  - cliparse: Configuration
  - auth: Admin key HMAC

See package documentation for each component.
*/
package main
