package cli

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/clock"
)

// RootOptions holds the persistent flags and the seams tests inject.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigPath string
	Database   string

	// Clock replaces the wall clock; nil means clock.System.
	Clock clock.Clock
	// HTTPClient replaces the remote client's transport.
	HTTPClient *http.Client
}

// ValidFormats lists the values --format accepts.
var ValidFormats = []string{"text", "json"}

// DefaultConfigPath is read when --config is not given. It may be absent.
const DefaultConfigPath = "fieldsync.yaml"

// NewRootCommand creates the root command for the fieldsync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fieldsync",
		Short: "fieldsync - offline field-sales store",
		Long: `Offline persistence and sync core for field-sales work.

Keeps customers, the item catalog, order bookings, receipts and the daily
visit log in a local SQLite database, rolls the visit log over at each day
change and pulls customers from the company's GraphQL backend.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "path to config file (default "+DefaultConfigPath+" if present)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	for _, sub := range []func(*RootOptions) *cobra.Command{
		NewInitCommand,
		NewRolloverCommand,
		NewCustomersCommand,
		NewVisitCommand,
		NewItemsCommand,
		NewOrderCommand,
		NewOrdersCommand,
		NewLineCommand,
		NewReceiptsCommand,
		NewActivityCommand,
		NewSalesCommand,
		NewReportCommand,
		NewSyncCommand,
		NewProvisionCommand,
		NewSnapshotCommand,
		NewScenarioCommand,
	} {
		cmd.AddCommand(sub(opts))
	}

	return cmd
}
