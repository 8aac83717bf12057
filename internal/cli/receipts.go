package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/model"
)

// NewReceiptsCommand creates the receipts command group.
func NewReceiptsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Record and list customer payments",
	}

	cmd.AddCommand(newReceiptsAddCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List receipts, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				receipts, err := s.store.GetAllCustomerReceipts(ctx)
				if err != nil {
					return s.out.Fail("list receipts failed", err)
				}
				return s.out.Render(receipts, func(w io.Writer) { writeReceipts(w, receipts) })
			})
		},
	})

	return cmd
}

func newReceiptsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in model.NewCustomerReceipt
	var amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payment from a customer",
		Long: `Record a payment from a customer. Receipts are append-only.

Example:
  fieldsync receipts add --customer 2 --amount 800 --note cash`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := decimal.NewFromString(amount)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", amount))
			}
			in.Amount = a
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				id, err := s.store.AddCustomerReceipt(ctx, in)
				if err != nil {
					return s.out.Fail("add receipt failed", err)
				}
				data := map[string]string{"id": id}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Receipt %s: %s from customer %d\n", id, in.Amount.StringFixed(2), in.CustomerID)
				})
			})
		},
	}

	cmd.Flags().Int64Var(&in.CustomerID, "customer", 0, "customer id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount received (required)")
	cmd.Flags().StringVar(&in.CashBankID, "cash-bank", "", "cash or bank account id")
	cmd.Flags().StringVar(&in.Note, "note", "", "note")
	cmd.Flags().StringVar(&in.Attachment, "attachment", "", "attachment reference")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func writeReceipts(w io.Writer, receipts []model.CustomerReceipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(w, "No receipts.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCUSTOMER\tAMOUNT\tNOTE\tID")
	for _, r := range receipts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt, r.CustomerName, r.Amount.StringFixed(2), r.Note, r.ID)
	}
	tw.Flush()
}
