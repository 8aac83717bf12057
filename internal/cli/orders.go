package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fieldsync/internal/model"
)

// NewOrderCommand creates the order command group.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Book orders",
	}

	cmd.AddCommand(newOrderSubmitCommand(rootOpts))

	return cmd
}

func newOrderSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <order.yaml>",
		Short: "Book an order with its lines in one transaction",
		Long: `Book an order from a YAML file ("-" reads stdin). The booking header, every
line, the customer's visit for the day and the recent-activity entry are
written together or not at all.

File format:
  booking:
    customer_id: 2
    order_no: ORD-100
    order_date: 2025-01-01   # optional, defaults to today
  lines:
    - item_id: "0003"
      order_qty: 2
      unit_price: 950

Example:
  fieldsync order submit ./ord-100.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := readOrderFile(cmd, args[0])
			if err != nil {
				out := newFormatter(rootOpts, cmd)
				return out.FailWith(ErrCodeFile, ExitCommandError, "failed to read order", err)
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if sub.Booking.CreatedByID == "" {
					sub.Booking.CreatedByID = s.cfg.CreatedByID
				}
				res, err := s.store.SubmitOrder(ctx, sub)
				if err != nil {
					return s.out.Fail("submit order failed", err)
				}
				return s.out.Render(res, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Booked %s for customer %d: %d line(s), total %s\n",
						res.BookingID, sub.Booking.CustomerID, res.ItemCount, res.TotalAmount.StringFixed(2))
				})
			})
		},
	}
}

func readOrderFile(cmd *cobra.Command, path string) (model.OrderSubmission, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.OrderSubmission{}, err
	}

	var sub model.OrderSubmission
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sub); err != nil {
		if errors.Is(err, io.EOF) {
			return model.OrderSubmission{}, errors.New("order file is empty")
		}
		return model.OrderSubmission{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return sub, nil
}

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Browse booked orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List all orders, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				orders, err := s.store.GetAllOrders(ctx)
				if err != nil {
					return s.out.Fail("list orders failed", err)
				}
				return s.out.Render(orders, func(w io.Writer) { writeOrders(w, orders) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "customer <customer-id>",
		Short:         "List one customer's orders, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				orders, err := s.store.GetOrdersByCustomer(ctx, id)
				if err != nil {
					return s.out.Fail("list customer orders failed", err)
				}
				return s.out.Render(orders, func(w io.Writer) { writeOrders(w, orders) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show <booking-id>",
		Short:         "Show an order with its lines",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				d, err := s.store.GetOrderDetails(ctx, args[0])
				if err != nil {
					return s.out.Fail("get order failed", err)
				}
				return s.out.Render(d, func(w io.Writer) { writeOrderDetails(w, d) })
			})
		},
	})

	return cmd
}

// LineOptions holds flags for the line update command.
type LineOptions struct {
	Qty       int64
	Amount    string
	ItemID    string
	UnitPrice string
}

// NewLineCommand creates the line command group.
func NewLineCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Edit or delete order lines",
	}

	cmd.AddCommand(newLineUpdateCommand(rootOpts))
	cmd.AddCommand(&cobra.Command{
		Use:           "delete <line-id>",
		Short:         "Delete an order line",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.store.DeleteOrderBookingLine(ctx, args[0]); err != nil {
					return s.out.Fail("delete line failed", err)
				}
				data := map[string]string{"line_id": args[0]}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted line %s\n", args[0])
				})
			})
		},
	})

	return cmd
}

func newLineUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LineOptions{}

	cmd := &cobra.Command{
		Use:   "update <line-id>",
		Short: "Change a line's quantity, amount or item",
		Long: `Change an order line.

With --qty and --amount only the quantity and amount change. With --item the
item, quantity, unit price and amount are all replaced. When --unit-price is
given and --amount is not, the amount is quantity times unit price.

Examples:
  fieldsync line update <line-id> --qty 3 --amount 1800
  fieldsync line update <line-id> --item 0005 --qty 2 --unit-price 480`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lineID := args[0]
			unitPrice, amount, err := opts.prices()
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if opts.ItemID != "" {
					err = s.store.UpdateOrderBookingLineDetails(ctx, model.LineDetails{
						LineID:    lineID,
						ItemID:    opts.ItemID,
						OrderQty:  opts.Qty,
						UnitPrice: unitPrice,
						Amount:    amount,
					})
				} else {
					err = s.store.UpdateOrderBookingLine(ctx, lineID, model.LineUpdate{OrderQty: opts.Qty, Amount: amount})
				}
				if err != nil {
					return s.out.Fail("update line failed", err)
				}
				data := map[string]interface{}{"line_id": lineID, "order_qty": opts.Qty, "amount": amount}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Updated line %s: qty %d, amount %s\n", lineID, opts.Qty, amount.StringFixed(2))
				})
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Qty, "qty", 0, "order quantity (required)")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "line amount")
	cmd.Flags().StringVar(&opts.ItemID, "item", "", "replace the line's item")
	cmd.Flags().StringVar(&opts.UnitPrice, "unit-price", "", "unit price (required with --item)")
	_ = cmd.MarkFlagRequired("qty")

	return cmd
}

// prices parses the money flags and derives the amount when only a unit
// price is given.
func (o *LineOptions) prices() (unitPrice, amount decimal.Decimal, err error) {
	if o.ItemID != "" && o.UnitPrice == "" {
		return unitPrice, amount, errors.New("--unit-price is required with --item")
	}
	if o.UnitPrice != "" {
		if unitPrice, err = decimal.NewFromString(o.UnitPrice); err != nil {
			return unitPrice, amount, fmt.Errorf("invalid unit price %q", o.UnitPrice)
		}
	}
	switch {
	case o.Amount != "":
		if amount, err = decimal.NewFromString(o.Amount); err != nil {
			return unitPrice, amount, fmt.Errorf("invalid amount %q", o.Amount)
		}
	case o.UnitPrice != "":
		amount = unitPrice.Mul(decimal.NewFromInt(o.Qty))
	default:
		return unitPrice, amount, errors.New("--amount or --unit-price is required")
	}
	return unitPrice, amount, nil
}

func writeOrders(w io.Writer, orders []model.OrderSummary) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tORDER\tCUSTOMER\tITEMS\tTOTAL\tBOOKING")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			o.OrderDate, o.OrderNo, o.CustomerName, o.ItemCount, o.TotalAmount.StringFixed(2), o.BookingID)
	}
	tw.Flush()
}

func writeOrderDetails(w io.Writer, d model.OrderDetails) {
	b := d.Booking
	fmt.Fprintf(w, "Order %s (%s) on %s\n", b.OrderNo, b.BookingID, b.OrderDate)
	fmt.Fprintf(w, "Customer: %d %s\n", b.CustomerID, d.CustomerName)
	if b.CreatedByID != "" {
		fmt.Fprintf(w, "Booked by: %s at %s\n", b.CreatedByID, b.CreatedDate)
	}
	fmt.Fprintln(w)

	total := decimal.Zero
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tITEM\tQTY\tPRICE\tAMOUNT")
	for _, l := range d.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.LineID, l.ItemName, l.OrderQty, l.UnitPrice.StringFixed(2), l.Amount.StringFixed(2))
		total = total.Add(l.Amount)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nTotal: %s\n", total.StringFixed(2))
}
