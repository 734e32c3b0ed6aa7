// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores the latest reconstruction of the contract logs.

The event log is the source of truth. The tables here are a read cache
that the indexer replaces wholesale after every successful scan, so the
API can answer without re-reading the chain.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open("postgres", "postgres://...")
	conn, err := db.Open("sqlite", "file:polls.db")

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Poll metadata, status and optional funding fields
  - poll_option: Options in contract order with their vote tally
  - project: Project metadata
  - project_poll: Ordered poll ids per project
  - token_balance: Latest balance per address
  - pool_reserves: Latest pool reserves (single row)
  - sync_run: One row per indexer pass

Token amounts are stored as decimal TEXT so the full uint64 range survives
both drivers.

# Store

	store := db.NewStore(conn)
	err := store.ReplaceSnapshot(ctx, snapshot)
	polls, err := store.ListPolls(ctx, false)
	poll, err := store.GetPoll(ctx, "7")

Lookups that match nothing return an error wrapping ErrNotFound.
*/
package db
