// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package eventlog

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

// Entity names passed to the malformed-payload hook
const (
	EntityPoll     = "poll"
	EntityProject  = "project"
	EntityFunding  = "funding"
	EntityBalance  = "balance"
	EntityReserves = "reserves"
)

// pollSuffixLen is creator|startTime|endTime|status|votes
const pollSuffixLen = 5

// minPollTokens is id|title|description, one options token, and the suffix
const minPollTokens = 3 + 1 + pollSuffixLen

var (
	ErrNotFound  = errors.New("record not found")
	errMalformed = errors.New("malformed payload")

	labeledLine = regexp.MustCompile(`(?s)^([A-Za-z][A-Za-z ]*?) (\d+): (.*)$`)
	rawPayload  = regexp.MustCompile(`^\d+\|`)
)

// Reconstructor rebuilds structured records from a contract event log.
// It holds no state between calls; every call re-derives from the events.
type Reconstructor struct {
	Logger *slog.Logger
	// Now is the clock used for IsActive; defaults to time.Now
	Now func() time.Time
	// OnMalformed, if set, is called once per skipped payload
	OnMalformed func(entity string)
}

func New(logger *slog.Logger) *Reconstructor {
	return &Reconstructor{Logger: logger}
}

func (r *Reconstructor) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconstructor) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Reconstructor) skip(entity, data string, err error) {
	r.logger().Warn("skipping malformed payload",
		"entity", entity,
		"error", err,
		"data", truncate(data, 120),
	)
	if r.OnMalformed != nil {
		r.OnMalformed(entity)
	}
}

// ordered returns the events in emission order. Events without slot
// information keep their relative position.
func ordered(events []massa.Event) []massa.Event {
	out := make([]massa.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})
	return out
}

// labeled splits "<Label> <id>: <payload>". ok is false when the line has
// another shape.
func labeled(line string) (label, id, payload string, ok bool) {
	m := labeledLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

func hasLabel(label, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(label), strings.ToLower(prefix))
}

// pollPayload extracts the canonical poll payload from a log line
func pollPayload(line string) (payload, labelID string, ok bool) {
	line = strings.TrimSpace(line)
	if label, id, p, isLabeled := labeled(line); isLabeled {
		if !hasLabel(label, "Poll") {
			return "", "", false
		}
		if !strings.Contains(p, "|") {
			// Status notes such as "Poll 7: closed" carry no record
			return "", "", false
		}
		return p, id, true
	}
	if rawPayload.MatchString(line) {
		return line, "", true
	}
	return "", "", false
}

// ParsePoll parses a canonical poll payload:
//
//	id|title|description|opt1||opt2||...|creator|startTime|endTime|status|v1,v2,...
//
// The last five tokens are fixed; everything between description and the
// suffix is the options blob.
func (r *Reconstructor) ParsePoll(payload string) (models.Poll, error) {
	tokens := strings.Split(payload, "|")
	n := len(tokens)
	if n < minPollTokens {
		return models.Poll{}, fmt.Errorf("%w: %d segments, need at least %d", errMalformed, n, minPollTokens)
	}

	id, err := CanonicalID(tokens[0])
	if err != nil {
		return models.Poll{}, err
	}

	suffix := tokens[n-pollSuffixLen:]
	creator := strings.TrimSpace(suffix[0])
	if !IsAddress(creator) {
		return models.Poll{}, fmt.Errorf("%w: creator %q is not an address", errMalformed, creator)
	}
	startTime, err := strconv.ParseInt(strings.TrimSpace(suffix[1]), 10, 64)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%w: start time: %v", errMalformed, err)
	}
	endTime, err := strconv.ParseInt(strings.TrimSpace(suffix[2]), 10, 64)
	if err != nil {
		return models.Poll{}, fmt.Errorf("%w: end time: %v", errMalformed, err)
	}
	status, err := strconv.Atoi(strings.TrimSpace(suffix[3]))
	if err != nil {
		return models.Poll{}, fmt.Errorf("%w: status: %v", errMalformed, err)
	}

	options, votes := splitOptions(tokens[3:n-pollSuffixLen], parseVotes(suffix[4]))
	if len(options) == 0 {
		return models.Poll{}, fmt.Errorf("%w: no options", errMalformed)
	}

	poll := models.Poll{
		ID:          id,
		Title:       tokens[1],
		Description: tokens[2],
		Options:     options,
		Votes:       alignVotes(votes, len(options)),
		Creator:     creator,
		StartTime:   startTime,
		EndTime:     endTime,
		Status:      models.PollStatus(status),
	}
	poll.IsActive = poll.ActiveAt(r.now())
	return poll, nil
}

// splitOptions re-joins the options tokens and splits on the "||"
// separator. Options keep their exact text; an empty slot is dropped along
// with the tally at the same position.
func splitOptions(tokens []string, votes []int64) ([]string, []int64) {
	blob := strings.Join(tokens, "|")
	options := []string{}
	kept := []int64{}
	for i, opt := range strings.Split(blob, "||") {
		if opt == "" {
			continue
		}
		options = append(options, opt)
		if i < len(votes) {
			kept = append(kept, votes[i])
		}
	}
	return options, kept
}

// parseVotes splits a comma list, dropping entries that are not integers
func parseVotes(s string) []int64 {
	votes := []int64{}
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		votes = append(votes, v)
	}
	return votes
}

// alignVotes pads with zeros or truncates so there is one tally per option
func alignVotes(votes []int64, n int) []int64 {
	out := make([]int64, n)
	copy(out, votes)
	return out
}

// Polls reconstructs every poll in the log. Later emissions of the same id
// replace earlier ones. The result is sorted by descending numeric id.
func (r *Reconstructor) Polls(events []massa.Event) []models.Poll {
	byID := map[string]models.Poll{}
	funding := map[string]models.Economics{}

	for _, evt := range ordered(events) {
		if label, id, payload, ok := labeled(strings.TrimSpace(evt.Data)); ok && hasLabel(label, "Funding") {
			econ, err := parseEconomics(payload)
			if err != nil {
				r.skip(EntityFunding, evt.Data, err)
				continue
			}
			if cid, err := CanonicalID(id); err == nil {
				funding[cid] = econ
			}
			continue
		}

		payload, labelID, ok := pollPayload(evt.Data)
		if !ok {
			continue
		}
		poll, err := r.ParsePoll(payload)
		if err != nil {
			r.skip(EntityPoll, evt.Data, err)
			continue
		}
		if labelID != "" && !sameID(labelID, poll.ID) {
			r.skip(EntityPoll, evt.Data, fmt.Errorf("%w: label id %s does not match payload id %s", errMalformed, labelID, poll.ID))
			continue
		}
		byID[poll.ID] = poll
	}

	polls := make([]models.Poll, 0, len(byID))
	for id, poll := range byID {
		if econ, ok := funding[id]; ok {
			poll.Economics = &econ
		}
		polls = append(polls, poll)
	}
	sortByIDDesc(polls, func(p models.Poll) string { return p.ID })
	return polls
}

// Poll returns the latest record for one poll id
func (r *Reconstructor) Poll(events []massa.Event, id string) (models.Poll, error) {
	for _, poll := range r.Polls(events) {
		if sameID(id, poll.ID) {
			return poll, nil
		}
	}
	return models.Poll{}, fmt.Errorf("poll %s: %w", id, ErrNotFound)
}

// parseEconomics parses fundingType|distributionMode|distributionType|rewardPool|fixedRewardAmount|fundingGoal
func parseEconomics(payload string) (models.Economics, error) {
	tokens := strings.Split(payload, "|")
	if len(tokens) != 6 {
		return models.Economics{}, fmt.Errorf("%w: %d funding segments, need 6", errMalformed, len(tokens))
	}
	var small [3]int
	for i := range small {
		v, err := strconv.Atoi(strings.TrimSpace(tokens[i]))
		if err != nil {
			return models.Economics{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		small[i] = v
	}
	var amounts [3]uint64
	for i := range amounts {
		v, err := strconv.ParseUint(strings.TrimSpace(tokens[3+i]), 10, 64)
		if err != nil {
			return models.Economics{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		amounts[i] = v
	}
	return models.Economics{
		FundingType:       small[0],
		DistributionMode:  small[1],
		DistributionType:  small[2],
		RewardPool:        amounts[0],
		FixedRewardAmount: amounts[1],
		FundingGoal:       amounts[2],
	}, nil
}

// CanonicalID validates a numeric record id and strips leading zeros, so
// "007" and "7" name the same record.
func CanonicalID(s string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: id %q is not numeric", errMalformed, s)
	}
	return strconv.FormatUint(n, 10), nil
}

func sameID(a, b string) bool {
	ca, err := CanonicalID(a)
	if err != nil {
		return false
	}
	return ca == b
}

// sortByIDDesc orders records by descending numeric id. Ids are canonical
// on parse.
func sortByIDDesc[T any](records []T, id func(T) string) {
	sort.Slice(records, func(i, j int) bool {
		a, _ := strconv.ParseUint(id(records[i]), 10, 64)
		b, _ := strconv.ParseUint(id(records[j]), 10, 64)
		return a > b
	})
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
