package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/clock"
	"github.com/roach88/fieldsync/internal/model"
	"github.com/roach88/fieldsync/internal/report"
)

// SalesOutput is the output of the sales command.
type SalesOutput struct {
	Today     model.SalesTotal `json:"today"`
	LastMonth model.SalesTotal `json:"last_month"`
}

// NewSalesCommand creates the sales command.
func NewSalesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sales",
		Short: "Show today's and last month's booked sales",
		Long: `Show the booked sales totals for today and for the last month (the same
day one month ago through today).
Totals are summed from order lines by the date each line was created.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				out, err := salesTotals(ctx, s)
				if err != nil {
					return s.out.Fail("sales totals failed", err)
				}
				return s.out.Render(out, func(w io.Writer) {
					writeSalesTotal(w, "Today", out.Today)
					writeSalesTotal(w, "Last month", out.LastMonth)
				})
			})
		},
	}
}

// ReportOptions holds flags for the report sales command.
type ReportOptions struct {
	*RootOptions
	Output string
}

// NewReportCommand creates the report command group.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export spreadsheets",
	}

	opts := &ReportOptions{RootOptions: rootOpts}
	sales := &cobra.Command{
		Use:   "sales",
		Short: "Export orders and sales totals to an XLSX workbook",
		Long: `Write an XLSX workbook with an Orders sheet (every booked order) and a
Totals sheet (today and last month).

Example:
  fieldsync report sales --out sales.xlsx`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				return runSalesReport(ctx, opts, s)
			})
		},
	}
	sales.Flags().StringVarP(&opts.Output, "out", "o", "sales.xlsx", "output file")
	cmd.AddCommand(sales)

	return cmd
}

func runSalesReport(ctx context.Context, opts *ReportOptions, s *session) error {
	orders, err := s.store.GetAllOrders(ctx)
	if err != nil {
		return s.out.Fail("list orders failed", err)
	}
	totals, err := salesTotals(ctx, s)
	if err != nil {
		return s.out.Fail("sales totals failed", err)
	}

	data := report.Sales{
		GeneratedAt: clock.Timestamp(s.clock),
		Orders:      orders,
		Today:       totals.Today,
		LastMonth:   totals.LastMonth,
	}
	if err := report.SaveSales(opts.Output, data); err != nil {
		return s.out.FailWith(ErrCodeFile, ExitCommandError, "failed to write report", err)
	}

	result := map[string]interface{}{"path": opts.Output, "orders": len(orders)}
	return s.out.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Wrote %s (%d order(s))\n", opts.Output, len(orders))
	})
}

func salesTotals(ctx context.Context, s *session) (SalesOutput, error) {
	today, err := s.store.GetTodaysSales(ctx)
	if err != nil {
		return SalesOutput{}, err
	}
	month, err := s.store.GetLastMonthSales(ctx)
	if err != nil {
		return SalesOutput{}, err
	}
	return SalesOutput{Today: today, LastMonth: month}, nil
}

func writeSalesTotal(w io.Writer, label string, t model.SalesTotal) {
	fmt.Fprintf(w, "%-11s %s  (%d order(s), %d line(s), %s to %s)\n",
		label+":", t.Amount.StringFixed(2), t.Orders, t.Lines, t.From, t.To)
}
