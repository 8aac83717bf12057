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

// NewItemsCommand creates the items command group.
func NewItemsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Browse and extend the item catalog",
	}

	cmd.AddCommand(newItemsListCommand(rootOpts))
	cmd.AddCommand(newItemsAddCommand(rootOpts))

	return cmd
}

func newItemsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list [query]",
		Short:         "List catalog items, optionally filtered by name",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				items, err := s.store.GetItems(ctx, query)
				if err != nil {
					return s.out.Fail("list items failed", err)
				}
				return s.out.Render(items, func(w io.Writer) { writeItems(w, items) })
			})
		},
	}
}

func newItemsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in model.NewItem
	var price string
	var stock int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		Long: `Add a catalog item under a new id.

Example:
  fieldsync items add --name "Green Tea 100g" --price 425.50 --stock 40`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid price %q", price))
			}
			in.Price = p
			if cmd.Flags().Changed("stock") {
				in.Stock = &stock
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				id, err := s.store.AddItem(ctx, in)
				if err != nil {
					return s.out.Fail("add item failed", err)
				}
				data := map[string]string{"id": id}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added item %s: %s at %s\n", id, in.Name, in.Price.StringFixed(2))
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&price, "price", "", "unit price (required)")
	cmd.Flags().StringVar(&in.Type, "type", "", "item type (default "+model.DefaultItemType+")")
	cmd.Flags().StringVar(&in.Image, "image", "", "image URL")
	cmd.Flags().Int64Var(&stock, "stock", 0, "units in stock")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func writeItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tTYPE\tSTOCK")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", it.ID, it.Name, it.Price.StringFixed(2), it.Type, it.Stock)
	}
	tw.Flush()
}
