// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to SQL that PostgreSQL and SQLite both accept. Token
// amounts are uint64 on chain and kept as decimal TEXT; times are unix ms.
const schema = `
-- Polls (latest reconstruction from the contract log)
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    num_id BIGINT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator TEXT NOT NULL,
    start_time BIGINT NOT NULL,
    end_time BIGINT NOT NULL,
    status INTEGER NOT NULL,
    funding_type INTEGER,
    distribution_mode INTEGER,
    distribution_type INTEGER,
    reward_pool TEXT,
    fixed_reward_amount TEXT,
    funding_goal TEXT
);

CREATE INDEX IF NOT EXISTS idx_poll_num_id ON poll(num_id);
CREATE INDEX IF NOT EXISTS idx_poll_creator ON poll(creator);

-- Options, in contract order, with their tally
CREATE TABLE IF NOT EXISTS poll_option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    label TEXT NOT NULL,
    votes BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (poll_id, position)
);

-- Projects
CREATE TABLE IF NOT EXISTS project (
    id TEXT PRIMARY KEY,
    num_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_poll (
    project_id TEXT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    poll_id TEXT NOT NULL,
    PRIMARY KEY (project_id, position)
);

-- Token ledger
CREATE TABLE IF NOT EXISTS token_balance (
    address TEXT PRIMARY KEY,
    amount TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_reserves (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    massa TEXT NOT NULL,
    token TEXT NOT NULL
);

-- Indexer bookkeeping
CREATE TABLE IF NOT EXISTS sync_run (
    id TEXT PRIMARY KEY,
    started_at BIGINT NOT NULL,
    finished_at BIGINT,
    events INTEGER NOT NULL DEFAULT 0,
    polls INTEGER NOT NULL DEFAULT 0,
    projects INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sync_run_started_at ON sync_run(started_at);
`
