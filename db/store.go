// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/massa-polls/models"
)

var ErrNotFound = errors.New("not found")

// Open connects to PostgreSQL or SQLite depending on dbType and checks the
// connection.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch strings.ToLower(dbType) {
	case "", "postgres", "postgresql":
		driver = "postgres"
	case "sqlite", "sqlite3":
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps
		// :memory: databases from splitting per connection.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Store is the read cache of the latest reconstruction
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ReplaceSnapshot swaps the stored records for the given snapshot in one
// transaction. Readers see either the old or the new snapshot.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap models.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"poll_option", "poll", "project_poll", "project", "token_balance", "pool_reserves"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, p := range snap.Polls {
		if err := insertPoll(ctx, tx, p); err != nil {
			return err
		}
	}

	for _, p := range snap.Projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project (id, num_id, name, description, creator, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, numID(p.ID), p.Name, p.Description, p.Creator, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
		}
		for i, pollID := range p.PollIDs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO project_poll (project_id, position, poll_id)
				VALUES ($1, $2, $3)
			`, p.ID, i, pollID)
			if err != nil {
				return fmt.Errorf("failed to link project %s to poll %s: %w", p.ID, pollID, err)
			}
		}
	}

	for addr, amount := range snap.Balances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO token_balance (address, amount) VALUES ($1, $2)
		`, addr, strconv.FormatUint(amount, 10))
		if err != nil {
			return fmt.Errorf("failed to insert balance for %s: %w", addr, err)
		}
	}

	if snap.Reserves != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pool_reserves (id, massa, token) VALUES (1, $1, $2)
		`, strconv.FormatUint(snap.Reserves.Massa, 10), strconv.FormatUint(snap.Reserves.Token, 10))
		if err != nil {
			return fmt.Errorf("failed to insert reserves: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func insertPoll(ctx context.Context, tx *sql.Tx, p models.Poll) error {
	var (
		fundingType, distMode, distType sql.NullInt64
		rewardPool, fixedReward, goal   sql.NullString
	)
	if e := p.Economics; e != nil {
		fundingType = sql.NullInt64{Int64: int64(e.FundingType), Valid: true}
		distMode = sql.NullInt64{Int64: int64(e.DistributionMode), Valid: true}
		distType = sql.NullInt64{Int64: int64(e.DistributionType), Valid: true}
		rewardPool = sql.NullString{String: strconv.FormatUint(e.RewardPool, 10), Valid: true}
		fixedReward = sql.NullString{String: strconv.FormatUint(e.FixedRewardAmount, 10), Valid: true}
		goal = sql.NullString{String: strconv.FormatUint(e.FundingGoal, 10), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO poll (id, num_id, title, description, creator, start_time, end_time, status,
			funding_type, distribution_mode, distribution_type, reward_pool, fixed_reward_amount, funding_goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, numID(p.ID), p.Title, p.Description, p.Creator, p.StartTime, p.EndTime, int(p.Status),
		fundingType, distMode, distType, rewardPool, fixedReward, goal)
	if err != nil {
		return fmt.Errorf("failed to insert poll %s: %w", p.ID, err)
	}

	for i, label := range p.Options {
		var votes int64
		if i < len(p.Votes) {
			votes = p.Votes[i]
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll_option (poll_id, position, label, votes)
			VALUES ($1, $2, $3, $4)
		`, p.ID, i, label, votes)
		if err != nil {
			return fmt.Errorf("failed to insert option %d of poll %s: %w", i, p.ID, err)
		}
	}
	return nil
}

const pollColumns = `id, title, description, creator, start_time, end_time, status,
	funding_type, distribution_mode, distribution_type, reward_pool, fixed_reward_amount, funding_goal`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var (
		p                               models.Poll
		status                          int
		fundingType, distMode, distType sql.NullInt64
		rewardPool, fixedReward, goal   sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Creator, &p.StartTime, &p.EndTime, &status,
		&fundingType, &distMode, &distType, &rewardPool, &fixedReward, &goal)
	if err != nil {
		return models.Poll{}, err
	}
	p.Status = models.PollStatus(status)
	if fundingType.Valid {
		p.Economics = &models.Economics{
			FundingType:       int(fundingType.Int64),
			DistributionMode:  int(distMode.Int64),
			DistributionType:  int(distType.Int64),
			RewardPool:        parseAmount(rewardPool.String),
			FixedRewardAmount: parseAmount(fixedReward.String),
			FundingGoal:       parseAmount(goal.String),
		}
	}
	return p, nil
}

// ListPolls returns stored polls by descending numeric id. With activeOnly,
// only polls accepting votes right now are returned.
func (s *Store) ListPolls(ctx context.Context, activeOnly bool) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pollColumns+` FROM poll ORDER BY num_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	defer rows.Close()

	now := s.now()
	polls := []models.Poll{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		p.IsActive = p.ActiveAt(now)
		if activeOnly && !p.IsActive {
			continue
		}
		index[p.ID] = len(polls)
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read polls: %w", err)
	}

	optRows, err := s.db.QueryContext(ctx, `
		SELECT poll_id, label, votes FROM poll_option ORDER BY poll_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var (
			pollID, label string
			votes         int64
		)
		if err := optRows.Scan(&pollID, &label, &votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		i, ok := index[pollID]
		if !ok {
			continue
		}
		polls[i].Options = append(polls[i].Options, label)
		polls[i].Votes = append(polls[i].Votes, votes)
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	return polls, nil
}

// GetPoll returns one stored poll with its options
func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pollColumns+` FROM poll WHERE id = $1`, id)
	p, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return models.Poll{}, fmt.Errorf("poll %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll %s: %w", id, err)
	}
	p.IsActive = p.ActiveAt(s.now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, votes FROM poll_option WHERE poll_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	p.Options = []string{}
	p.Votes = []int64{}
	for rows.Next() {
		var (
			label string
			votes int64
		)
		if err := rows.Scan(&label, &votes); err != nil {
			return models.Poll{}, fmt.Errorf("failed to scan option: %w", err)
		}
		p.Options = append(p.Options, label)
		p.Votes = append(p.Votes, votes)
	}
	if err := rows.Err(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to read options: %w", err)
	}
	return p, nil
}

// ListProjects returns stored projects by descending numeric id
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, creator, created_at FROM project ORDER BY num_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	index := map[string]int{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Creator, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.PollIDs = []string{}
		index[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	linkRows, err := s.db.QueryContext(ctx, `
		SELECT project_id, poll_id FROM project_poll ORDER BY project_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query project polls: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var projectID, pollID string
		if err := linkRows.Scan(&projectID, &pollID); err != nil {
			return nil, fmt.Errorf("failed to scan project poll: %w", err)
		}
		if i, ok := index[projectID]; ok {
			projects[i].PollIDs = append(projects[i].PollIDs, pollID)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project polls: %w", err)
	}

	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, creator, created_at FROM project WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Creator, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to query project %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT poll_id FROM project_poll WHERE project_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to query project polls: %w", err)
	}
	defer rows.Close()

	p.PollIDs = []string{}
	for rows.Next() {
		var pollID string
		if err := rows.Scan(&pollID); err != nil {
			return models.Project{}, fmt.Errorf("failed to scan project poll: %w", err)
		}
		p.PollIDs = append(p.PollIDs, pollID)
	}
	if err := rows.Err(); err != nil {
		return models.Project{}, fmt.Errorf("failed to read project polls: %w", err)
	}
	return p, nil
}

func (s *Store) GetBalance(ctx context.Context, address string) (uint64, error) {
	var amount string
	err := s.db.QueryRowContext(ctx, `
		SELECT amount FROM token_balance WHERE address = $1
	`, address).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("balance of %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query balance: %w", err)
	}
	return parseAmount(amount), nil
}

func (s *Store) GetReserves(ctx context.Context) (models.Reserves, error) {
	var massa, token string
	err := s.db.QueryRowContext(ctx, `
		SELECT massa, token FROM pool_reserves WHERE id = 1
	`).Scan(&massa, &token)
	if err == sql.ErrNoRows {
		return models.Reserves{}, fmt.Errorf("reserves: %w", ErrNotFound)
	}
	if err != nil {
		return models.Reserves{}, fmt.Errorf("failed to query reserves: %w", err)
	}
	return models.Reserves{Massa: parseAmount(massa), Token: parseAmount(token)}, nil
}

// RecordSyncRun inserts a run or updates it when the id already exists
func (s *Store) RecordSyncRun(ctx context.Context, run models.SyncRun) error {
	var finished sql.NullInt64
	if run.FinishedAt != nil {
		finished = sql.NullInt64{Int64: run.FinishedAt.UnixMilli(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_run (id, started_at, finished_at, events, polls, projects, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = excluded.finished_at,
			events = excluded.events,
			polls = excluded.polls,
			projects = excluded.projects,
			error = excluded.error
	`, run.ID, run.StartedAt.UnixMilli(), finished, run.Events, run.Polls, run.Projects, run.Error)
	if err != nil {
		return fmt.Errorf("failed to record sync run %s: %w", run.ID, err)
	}
	return nil
}

// LatestSyncRun returns the most recently started run
func (s *Store) LatestSyncRun(ctx context.Context) (models.SyncRun, error) {
	var (
		run      models.SyncRun
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, events, polls, projects, error
		FROM sync_run ORDER BY started_at DESC LIMIT 1
	`).Scan(&run.ID, &started, &finished, &run.Events, &run.Polls, &run.Projects, &run.Error)
	if err == sql.ErrNoRows {
		return models.SyncRun{}, fmt.Errorf("sync run: %w", ErrNotFound)
	}
	if err != nil {
		return models.SyncRun{}, fmt.Errorf("failed to query sync run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		run.FinishedAt = &t
	}
	return run, nil
}

// numID is the sort key for canonical numeric ids
func numID(id string) int64 {
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}

func parseAmount(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}
