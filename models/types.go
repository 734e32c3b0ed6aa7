package models

import "time"

// PollStatus is the on-chain poll status code.
type PollStatus int

const (
	StatusActive      PollStatus = 0
	StatusClosed      PollStatus = 1
	StatusEnded       PollStatus = 2
	StatusForClaiming PollStatus = 3
)

func (s PollStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	case StatusEnded:
		return "ended"
	case StatusForClaiming:
		return "for_claiming"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON responses
func (s PollStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Funding type constants
const (
	FundingSelf      = 0
	FundingCommunity = 1
	FundingTreasury  = 2
)

// Distribution mode constants
const (
	DistributionEqual    = 0
	DistributionFixed    = 1
	DistributionWeighted = 2
)

// Distribution type constants
const (
	DistributionManual = 0
	DistributionAuto   = 1
)

// Domain types

// Economics holds the optional funding fields of a poll, emitted on a
// separate "Funding <id>:" log line.
type Economics struct {
	FundingType       int    `json:"funding_type"`
	DistributionMode  int    `json:"distribution_mode"`
	DistributionType  int    `json:"distribution_type"`
	RewardPool        uint64 `json:"reward_pool"`
	FixedRewardAmount uint64 `json:"fixed_reward_amount"`
	FundingGoal       uint64 `json:"funding_goal"`
}

type Poll struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	Votes       []int64    `json:"votes"`
	Creator     string     `json:"creator"`
	StartTime   int64      `json:"start_time"`
	EndTime     int64      `json:"end_time"`
	Status      PollStatus `json:"status"`
	IsActive    bool       `json:"is_active"`
	Economics   *Economics `json:"economics,omitempty"`
}

// ActiveAt reports whether the poll accepts votes at the given instant
func (p Poll) ActiveAt(now time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	ms := now.UnixMilli()
	return ms >= p.StartTime && ms <= p.EndTime
}

// TotalVotes sums the tally across all options
func (p Poll) TotalVotes() int64 {
	var total int64
	for _, v := range p.Votes {
		total += v
	}
	return total
}

type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Creator     string   `json:"creator"`
	CreatedAt   int64    `json:"created_at"`
	PollIDs     []string `json:"poll_ids"`
}

type Reserves struct {
	Massa uint64 `json:"massa"`
	Token uint64 `json:"token"`
}

// Snapshot is one full reconstruction of the contract logs
type Snapshot struct {
	Polls    []Poll
	Projects []Project
	Balances map[string]uint64
	Reserves *Reserves
}

type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Events     int        `json:"events"`
	Polls      int        `json:"polls"`
	Projects   int        `json:"projects"`
	Error      string     `json:"error,omitempty"`
}

// Request types

type AwaitPollRequest struct {
	MinVotes int64 `json:"min_votes"`
}

// Response types

type OptionResult struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Votes int64   `json:"votes"`
	Share float64 `json:"share"`
}

type PollResultsResponse struct {
	Poll       Poll           `json:"poll"`
	Options    []OptionResult `json:"options"`
	TotalVotes int64          `json:"total_votes"`
	Leader     *OptionResult  `json:"leader,omitempty"`
}

type ProjectWithPolls struct {
	Project Project `json:"project"`
	Polls   []Poll  `json:"polls"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

type QuoteResponse struct {
	Direction string   `json:"direction"`
	Input     string   `json:"input"`
	Output    string   `json:"output"`
	OutputRaw uint64   `json:"output_raw"`
	Rate      string   `json:"rate"`
	SpreadBps int64    `json:"spread_bps"`
	Reserves  Reserves `json:"reserves"`
}

type ResyncResponse struct {
	Run SyncRun `json:"run"`
}

// Error response

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Title      string `json:"title,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
