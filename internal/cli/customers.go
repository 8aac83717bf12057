package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/model"
)

// NewCustomersCommand creates the customers command group.
func NewCustomersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List, search, add and locate customers",
	}

	cmd.AddCommand(newCustomersListCommand(rootOpts))
	cmd.AddCommand(newCustomersSearchCommand(rootOpts))
	cmd.AddCommand(newCustomersAddCommand(rootOpts))
	cmd.AddCommand(newCustomersLocateCommand(rootOpts))

	return cmd
}

func newCustomersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all customers by name",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				customers, err := s.store.GetAllCustomers(ctx)
				if err != nil {
					return s.out.Fail("list customers failed", err)
				}
				return s.out.Render(customers, func(w io.Writer) { writeCustomers(w, customers) })
			})
		},
	}
}

func newCustomersSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search customers by name",
		Long: `Search customers by name. Matching ignores case and accents, so "ayesha"
finds "Ayesha Khan".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				customers, err := s.store.SearchCustomers(ctx, args[0])
				if err != nil {
					return s.out.Fail("search customers failed", err)
				}
				return s.out.Render(customers, func(w io.Writer) { writeCustomers(w, customers) })
			})
		},
	}
}

func newCustomersAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in model.NewCustomer
	var visited string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer on the device",
		Long: `Add a customer. The id is one more than the highest existing id. Phone
numbers are normalized to E.164 using the configured phone region.

Example:
  fieldsync customers add --name "Hamza Ali" --phone 0300-1234567`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if visited != "" {
				status, err := model.ParseVisitStatus(visited)
				if err != nil {
					return NewExitError(ExitCommandError, err.Error())
				}
				in.Visited = status
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				id, err := s.store.AddCustomer(ctx, in)
				if err != nil {
					return s.out.Fail("add customer failed", err)
				}
				data := map[string]int64{"entity_id": id}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Added customer %d: %s\n", id, in.Name)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "customer name (required)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.LastSeen, "last-seen", "", "last seen note")
	cmd.Flags().StringVar(&visited, "visited", "", "initial visit status (Visited|Unvisited)")

	return cmd
}

func newCustomersLocateCommand(rootOpts *RootOptions) *cobra.Command {
	var lat, lng float64
	var status string

	cmd := &cobra.Command{
		Use:   "locate <customer-id>",
		Short: "Record a customer's coordinates",
		Long: `Record a customer's coordinates. With --status the location status
(last-seen label) is updated too.

Example:
  fieldsync customers locate 3 --lat 24.8607 --lng 67.0011 --status "Updated"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if cmd.Flags().Changed("status") {
					err = s.store.UpdateCustomerLocationWithLastSeen(ctx, id, lat, lng, status)
				} else {
					err = s.store.UpdateCustomerLocation(ctx, id, lat, lng)
				}
				if err != nil {
					return s.out.Fail("update location failed", err)
				}
				c, err := s.store.GetCustomer(ctx, id)
				if err != nil {
					return s.out.Fail("get customer failed", err)
				}
				return s.out.Render(c, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Customer %d located at %.6f, %.6f (%s)\n", id, lat, lng, c.LocationStatus)
				})
			})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude (required)")
	cmd.Flags().StringVar(&status, "status", "", "location status label")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func writeCustomers(w io.Writer, customers []model.Customer) {
	if len(customers) == 0 {
		fmt.Fprintln(w, "No customers.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tVISITED\tLOCATION")
	for _, c := range customers {
		loc := c.LocationStatus
		if c.Latitude != nil && c.Longitude != nil {
			loc = fmt.Sprintf("%.5f,%.5f", *c.Latitude, *c.Longitude)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.EntityID, c.Name, c.Phone, c.Visited, loc)
	}
	tw.Flush()
}
