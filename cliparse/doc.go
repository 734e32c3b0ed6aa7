// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

Load returns a Config built from, lowest precedence first:

 1. Defaults()
 2. A YAML file (--config or CONFIG_FILE)
 3. A .env file (ENV_FILE, default ".env"); never overrides the environment
 4. Environment variables
 5. Flags explicitly set on the command line

Commands register the flags with RegisterFlags and pass their FlagSet:

	cliparse.RegisterFlags(cmd.PersistentFlags())
	cfg, err := cliparse.Load(configFile, cmd.Flags())

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: PostgreSQL or SQLite connection string
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC
  - RPCURL: Massa node JSON-RPC endpoint
  - PollsContract: Address whose event log holds polls and projects
  - TokenContract: Address whose event log holds balances and reserves
  - SyncInterval, ConfirmInterval, ConfirmTimeout, RequestTimeout
  - TokenDecimals (default 9), SpreadBps (default 250)

# Environment Variables

	PORT             → -p, --port
	DATABASE_URL     → -d, --database-url
	DATABASE_TYPE    → -t, --database-type
	ADMIN_KEY_SALT   → --admin-salt
	MASSA_RPC_URL    → --rpc-url
	POLLS_CONTRACT   → --polls-contract
	TOKEN_CONTRACT   → --token-contract
	SYNC_INTERVAL    → --sync-interval
	CONFIRM_INTERVAL → --confirm-interval
	CONFIRM_TIMEOUT  → --confirm-timeout
	REQUEST_TIMEOUT  → --request-timeout
	TOKEN_DECIMALS   → --token-decimals
	SPREAD_BPS       → --spread-bps

# Validation

Validate checks what every command needs (RPC URL, polls contract, sane
spread and decimals). ValidateServe additionally requires DATABASE_URL and
ADMIN_KEY_SALT.
*/
package cliparse
