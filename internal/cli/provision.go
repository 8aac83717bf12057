package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldsync/internal/provision"
)

// ProvisionOutput is the stored provisioning config without its secret.
type ProvisionOutput struct {
	BaseURL    string `json:"base_url"`
	SyncURL    string `json:"sync_url"`
	CompanyID  int64  `json:"company_id"`
	DeviceName string `json:"device_name,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision <payload-file>",
		Short: "Store the device config scanned from a QR code",
		Long: `Validate a provisioning payload (JSON, or base64-encoded JSON) and store it
as the device's QR config. "-" reads the payload from stdin.

Once provisioned, sync uses the payload's sync_url and company_id.

Example:
  fieldsync provision ./qr.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return out.FailWith(ErrCodeFile, ExitCommandError, "failed to read payload", err)
			}

			cfg, err := provision.ParsePayload(data)
			if err != nil {
				return out.FailWith(ErrCodeInvalid, ExitFailure, "invalid provisioning payload", err)
			}

			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				if err := s.store.SaveQRConfig(ctx, cfg); err != nil {
					return s.out.Fail("save qr config failed", err)
				}
				stored, err := s.store.GetQRConfig(ctx)
				if err != nil {
					return s.out.Fail("read qr config failed", err)
				}
				data := ProvisionOutput{
					BaseURL:    stored.BaseURL,
					SyncURL:    stored.SyncURL,
					CompanyID:  stored.CompanyID,
					DeviceName: stored.DeviceName,
					UpdatedAt:  stored.UpdatedAt,
				}
				return s.out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Provisioned for company %d\n", data.CompanyID)
					fmt.Fprintf(w, "  sync url: %s\n", data.SyncURL)
					if data.DeviceName != "" {
						fmt.Fprintf(w, "  device:   %s\n", data.DeviceName)
					}
				})
			})
		},
	}
}
