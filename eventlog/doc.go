// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package eventlog reconstructs polls, projects, balances, and pool reserves
from a contract's free-text event log.

The contract exposes no queryable state. Each write emits a log line and
the latest line for an entity is its current state. Accepted poll lines:

	Poll 7: 7|Favorite color?|Pick one|Red||Blue||Green|AU1...|1700000000000|1700600000000|0|3,5,1
	7|Favorite color?|Pick one|Red||Blue||Green|AU1...|1700000000000|1700600000000|0|3,5,1

The last five fields of a poll payload are fixed (creator, start, end,
status, votes). Everything between the description and that suffix is the
options list, separated by "||".

Other lines:

	Funding <id>: fundingType|distributionMode|distributionType|rewardPool|fixedRewardAmount|fundingGoal
	Project <id>: id|name|description|creator|createdAt|pollId,pollId
	Balance <address>: <amount>
	Reserves: <massa>|<token>

Malformed lines are logged and skipped. For duplicate ids the last emitted
record wins; lists come back sorted by descending numeric id.
*/
package eventlog
