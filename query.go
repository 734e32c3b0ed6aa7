// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/massa-polls/amm"
	"github.com/danielhkuo/massa-polls/auth"
	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/confirm"
	"github.com/danielhkuo/massa-polls/errclass"
	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/massa"
	"github.com/danielhkuo/massa-polls/models"
)

// nodeCmd carries what a query command needs once the node is reachable
type nodeCmd struct {
	cfg    *cliparse.Config
	client *massa.Client
	rec    *eventlog.Reconstructor
}

// withNode loads the config, connects to the node for the duration of fn,
// and turns errors into their user-facing explanation.
func withNode(cmd *cobra.Command, fn func(ctx context.Context, n nodeCmd) error) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	logger := commonRun(cfg, false)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := massa.NewClient(massa.Config{
		URL:            cfg.RPCURL,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})
	if err := client.Connect(ctx); err != nil {
		return explain(err)
	}
	defer client.Close()

	return explain(fn(ctx, nodeCmd{cfg: cfg, client: client, rec: eventlog.New(logger)}))
}

// explain prefixes an error with its classification title and appends the
// suggestion, unless nothing better than "unexpected" is known
func explain(err error) error {
	if err == nil {
		return nil
	}
	c := errclass.Classify(err)
	if c.Kind == errclass.KindUnknown {
		return err
	}
	return fmt.Errorf("%s: %w\n%s", c.Title, err, c.Suggestion)
}

func (n nodeCmd) tokenEvents(ctx context.Context) ([]massa.Event, error) {
	if n.cfg.TokenContract == "" {
		return nil, errors.New("token contract required (use --token-contract or TOKEN_CONTRACT env)")
	}
	return n.client.GetEvents(ctx, n.cfg.TokenContract)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func msTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func pollsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polls",
		Short: "Inspect polls straight from the contract log",
	}

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List polls, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				events, err := n.client.GetEvents(ctx, n.cfg.PollsContract)
				if err != nil {
					return err
				}
				now := time.Now()
				tw := newTable()
				fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tVOTES\tENDS")
				for _, p := range n.rec.Polls(events) {
					if activeOnly && !p.ActiveAt(now) {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						p.ID, p.Title, p.Status, humanize.Comma(p.TotalVotes()), humanize.Time(msTime(p.EndTime)))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "only polls accepting votes now")

	show := &cobra.Command{
		Use:   "show <poll-id>",
		Short: "Show one poll with its tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				events, err := n.client.GetEvents(ctx, n.cfg.PollsContract)
				if err != nil {
					return err
				}
				p, err := n.rec.Poll(events, args[0])
				if err != nil {
					return err
				}
				printPoll(p)
				return nil
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func printPoll(p models.Poll) {
	fmt.Printf("Poll %s: %s\n", p.ID, p.Title)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	fmt.Printf("Creator: %s\n", p.Creator)
	fmt.Printf("Status:  %s (active now: %t)\n", p.Status, p.ActiveAt(time.Now()))
	fmt.Printf("Window:  %s to %s\n",
		msTime(p.StartTime).Format(time.RFC3339), msTime(p.EndTime).Format(time.RFC3339))
	if e := p.Economics; e != nil {
		fmt.Printf("Reward pool: %s MASSA (funding goal %s)\n",
			amm.FromBaseUnits(e.RewardPool, amm.DefaultDecimals), amm.FromBaseUnits(e.FundingGoal, amm.DefaultDecimals))
	}

	total := p.TotalVotes()
	fmt.Println()
	tw := newTable()
	fmt.Fprintln(tw, "#\tOPTION\tVOTES\tSHARE")
	for i, label := range p.Options {
		var votes int64
		if i < len(p.Votes) {
			votes = p.Votes[i]
		}
		share := 0.0
		if total > 0 {
			share = float64(votes) / float64(total) * 100
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s%%\n", i, label, humanize.Comma(votes), humanize.FtoaWithDigits(share, 1))
	}
	tw.Flush()
	fmt.Printf("\n%s votes in total\n", humanize.Comma(total))
}

func projectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect projects straight from the contract log",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				events, err := n.client.GetEvents(ctx, n.cfg.PollsContract)
				if err != nil {
					return err
				}
				tw := newTable()
				fmt.Fprintln(tw, "ID\tNAME\tPOLLS\tCREATED")
				for _, p := range n.rec.Projects(events) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						p.ID, p.Name, strings.Join(p.PollIDs, ","), humanize.Time(msTime(p.CreatedAt)))
				}
				return tw.Flush()
			})
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show an address's poll token balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			if !eventlog.IsAddress(address) {
				return fmt.Errorf("%q is not a Massa address", address)
			}
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				events, err := n.tokenEvents(ctx)
				if err != nil {
					return err
				}
				amount, err := n.rec.Balance(events, address)
				if err != nil && !errors.Is(err, eventlog.ErrNotFound) {
					return err
				}
				fmt.Printf("%s tokens\n", amm.FromBaseUnits(amount, n.cfg.TokenDecimals))
				return nil
			})
		},
	}
}

func quoteCommand() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "quote <amount>",
		Short: "Quote a swap against the current pool reserves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				inName, outName := "MASSA", "tokens"
				inDecimals, outDecimals := uint8(amm.DefaultDecimals), n.cfg.TokenDecimals
				switch direction {
				case "massa_to_token":
				case "token_to_massa":
					inName, outName = outName, inName
					inDecimals, outDecimals = outDecimals, inDecimals
				default:
					return fmt.Errorf("direction must be massa_to_token or token_to_massa, got %q", direction)
				}

				input, err := amm.ToBaseUnits(args[0], inDecimals)
				if err != nil {
					return err
				}
				events, err := n.tokenEvents(ctx)
				if err != nil {
					return err
				}
				reserves, err := n.rec.Reserves(events)
				if err != nil {
					return err
				}
				inReserve, outReserve := reserves.Massa, reserves.Token
				if direction == "token_to_massa" {
					inReserve, outReserve = reserves.Token, reserves.Massa
				}
				output, err := amm.Quote(inReserve, outReserve, input, n.cfg.SpreadBps)
				if err != nil {
					return err
				}
				rate, err := amm.UnitRate(inReserve, outReserve, inDecimals, outDecimals, n.cfg.SpreadBps)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s -> %s %s (1 %s = %s %s, spread %s%%)\n",
					amm.FromBaseUnits(input, inDecimals), inName,
					amm.FromBaseUnits(output, outDecimals), outName,
					inName, rate, outName,
					humanize.FtoaWithDigits(float64(n.cfg.SpreadBps)/100, 2))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "massa_to_token", "massa_to_token or token_to_massa")
	return cmd
}

func awaitCommand() *cobra.Command {
	var minVotes int64
	cmd := &cobra.Command{
		Use:   "await <poll-id>",
		Short: "Wait until a poll (or its votes) shows up in the contract log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minVotes < 0 {
				return errors.New("--min-votes must not be negative")
			}
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				waiter := confirm.NewWaiter(n.client, n.rec, n.cfg.ConfirmInterval, n.cfg.ConfirmTimeout, nil)
				var (
					p   models.Poll
					err error
				)
				if minVotes > 0 {
					p, err = waiter.WaitForVotes(ctx, n.cfg.PollsContract, args[0], minVotes)
				} else {
					p, err = waiter.WaitForPoll(ctx, n.cfg.PollsContract, args[0])
				}
				if err != nil {
					return err
				}
				printPoll(p)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&minVotes, "min-votes", 0, "wait until the poll has at least this many votes")
	return cmd
}

func callCommand() *cobra.Command {
	var (
		target string
		param  string
		caller string
	)
	cmd := &cobra.Command{
		Use:   "call <function>",
		Short: "Run a read-only contract call and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n nodeCmd) error {
				call := massa.ReadOnlyCall{
					TargetAddress:  target,
					TargetFunction: args[0],
					Parameter:      []byte(param),
				}
				if call.TargetAddress == "" {
					call.TargetAddress = n.cfg.PollsContract
				}
				if caller != "" {
					call.CallerAddress = &caller
				}
				res, err := n.client.ReadOnlyCall(ctx, call)
				if err != nil {
					return err
				}
				fmt.Printf("Result (%d bytes): %q\n", len(res.Result.Ok), res.Result.Ok)
				fmt.Printf("Gas: %s\n", humanize.Comma(int64(res.GasCost)))
				for _, evt := range res.OutputEvents {
					fmt.Printf("Event: %s\n", evt.Data)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "contract address (default: the polls contract)")
	cmd.Flags().StringVar(&param, "param", "", "raw call parameter")
	cmd.Flags().StringVar(&caller, "caller", "", "caller address")
	return cmd
}

func adminKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-key",
		Short: "Print the X-Admin-Key value for POST /admin/resync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.AdminKeySalt == "" {
				return errors.New("ADMIN_KEY_SALT required")
			}
			fmt.Println(auth.GenerateAdminKey(auth.ScopeResync, cfg.AdminKeySalt))
			return nil
		},
	}
}
