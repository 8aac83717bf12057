package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/store"
)

// snapshotSources maps each uploadable table to its snapshot getter.
var snapshotSources = map[string]func(ctx context.Context, st *store.Store) (interface{}, error){
	"customers": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllCustomersForSync(ctx)
	},
	"items": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllItems(ctx)
	},
	"order_bookings": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllOrderBookings(ctx)
	},
	"order_booking_lines": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllOrderBookingLines(ctx)
	},
	"customer_receipts": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllCustomerReceiptsForSync(ctx)
	},
	"activity_logs": func(ctx context.Context, st *store.Store) (interface{}, error) {
		return st.GetAllActivityLogs(ctx)
	},
}

// SnapshotTables returns the table names accepted by the snapshot command.
func SnapshotTables() []string {
	names := make([]string, 0, len(snapshotSources))
	for name := range snapshotSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <table>",
		Short: "Print the upload snapshot of a table",
		Long: fmt.Sprintf(`Print every row of a table in key order, one row per key, as JSON.
This is the view a sync upload sends to the backend.

Tables: %s`, strings.Join(SnapshotTables(), ", ")),
		Args:          cobra.ExactArgs(1),
		ValidArgs:     SnapshotTables(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ok := snapshotSources[args[0]]
			if !ok {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("unknown table %q: must be one of %s", args[0], strings.Join(SnapshotTables(), ", ")))
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				rows, err := source(ctx, s.store)
				if err != nil {
					return s.out.Fail("snapshot failed", err)
				}
				s.out.VerboseLog("%s: %d row(s)", args[0], reflect.ValueOf(rows).Len())
				if s.out.Format == "json" {
					return s.out.Success(rows)
				}
				return writeIndentedJSON(s.out.Writer, rows)
			})
		},
	}
}

func writeIndentedJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
