package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/rollover"
)

// InitResult is the output of the init command.
type InitResult struct {
	Database string          `json:"database"`
	Rollover rollover.Result `json:"rollover"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or open the database and run the daily rollover",
		Long: `Create the database if needed, apply migrations, seed the demo customers
and item catalog on first run, then run the daily visit rollover.

This is what the app does on every launch.

Example:
  fieldsync init --db ./field.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				res, err := newEngine(s).AutoResetDailyVisitStatus(ctx)
				if err != nil {
					return s.out.Fail("rollover failed", err)
				}
				data := InitResult{Database: s.cfg.Database, Rollover: res}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Database ready: %s\n", s.cfg.Database)
					writeRollover(w, res)
				})
			})
		},
	}
}

// NewRolloverCommand creates the rollover command.
func NewRolloverCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Apply the day change to the visit log",
		Long: `Compare today's date with the last reset date. On a new day every customer
is set back to Unvisited and gets an activity row for today. Running it
again on the same day changes nothing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				res, err := newEngine(s).AutoResetDailyVisitStatus(ctx)
				if err != nil {
					return s.out.Fail("rollover failed", err)
				}
				return s.out.Render(res, func(w io.Writer) { writeRollover(w, res) })
			})
		},
	}
}

// NewVisitCommand creates the visit command.
func NewVisitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "visit <customer-id>",
		Short:         "Mark a customer visited today",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.store.MarkCustomerVisited(ctx, id); err != nil {
					return s.out.Fail("mark visited failed", err)
				}
				data := map[string]interface{}{"customer_id": id, "date": clock.Today(s.clock), "status": model.VisitVisited}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Customer %d visited on %s\n", id, clock.Today(s.clock))
				})
			})
		},
	}
}

// NewActivityCommand creates the activity command.
func NewActivityCommand(rootOpts *RootOptions) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "activity [date]",
		Short: "Show the visit log for a day (default today)",
		Long: `Show the visit log for a day, or with --recent the latest submitted orders.

Examples:
  fieldsync activity
  fieldsync activity 2025-01-01
  fieldsync activity --recent 10`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if recent > 0 {
					acts, err := s.store.GetRecentActivities(ctx, recent)
					if err != nil {
						return s.out.Fail("get recent activities failed", err)
					}
					return s.out.Render(acts, func(w io.Writer) { writeRecent(w, acts) })
				}

				date := clock.Today(s.clock)
				if len(args) == 1 {
					date = args[0]
				}
				logs, err := s.store.GetActivityLog(ctx, date)
				if err != nil {
					return s.out.Fail("get activity log failed", err)
				}
				return s.out.Render(logs, func(w io.Writer) { writeActivity(w, date, logs) })
			})
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent order activities instead")

	return cmd
}

func newEngine(s *session) *rollover.Engine {
	return rollover.New(s.store, rollover.WithClock(s.clock), rollover.WithLogger(s.logger))
}

func parseEntityID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid customer id %q", arg))
	}
	return id, nil
}

func writeRollover(w io.Writer, res rollover.Result) {
	switch res.Transition {
	case rollover.FirstRun:
		fmt.Fprintf(w, "First run on %s: %d activity row(s) created\n", res.Date, res.Seeded)
	case rollover.Reset:
		fmt.Fprintf(w, "New day %s (last reset %s): %d customer(s) cleared, %d activity row(s) created\n",
			res.Date, res.PreviousDate, res.Cleared, res.Seeded)
	default:
		fmt.Fprintf(w, "Already rolled over for %s\n", res.Date)
	}
}

func writeActivity(w io.Writer, date string, logs []model.ActivityLog) {
	if len(logs) == 0 {
		fmt.Fprintf(w, "No activity for %s.\n", date)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CUSTOMER\tNAME\tSTATUS")
	for _, l := range logs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.CustomerID, l.CustomerName, l.Status)
	}
	tw.Flush()
}

func writeRecent(w io.Writer, acts []model.RecentActivity) {
	if len(acts) == 0 {
		fmt.Fprintln(w, "No recent activity.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCUSTOMER\tITEMS\tTOTAL\tBOOKING")
	for _, a := range acts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", a.ActivityDate, a.CustomerName, a.ItemCount, a.TotalAmount.StringFixed(2), a.BookingID)
	}
	tw.Flush()
}
