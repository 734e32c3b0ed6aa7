// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides operator authentication for the admin endpoints.

# Admin Keys

Admin keys use HMAC-SHA256 over a scope name to create deterministic,
verifiable keys:

	adminKey := auth.GenerateAdminKey(auth.ScopeResync, salt)
	err := auth.ValidateAdminKey(auth.ScopeResync, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same scope and salt always produce the same key, so nothing is stored.
The `massa-polls admin-key` command prints the key for the configured salt.

Requests carry the key in the X-Admin-Key header:

	if err := auth.ValidateRequest(r, auth.ScopeResync, cfg.AdminKeySalt); err != nil {
		// 401
	}

# Security Notes

  - ADMIN_KEY_SALT must be a long random secret; an empty salt never validates
  - Keys are compared with hmac.Equal
*/
package auth
