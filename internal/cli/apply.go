package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/client"
	"github.com/iliyamo/rental-contracts/internal/store"
)

// ApplyTemplateCmd submits one invoice through the same flow the app
// uses.  The API address and token come from RENT_API_URL and
// RENT_API_TOKEN.
func ApplyTemplateCmd() *cobra.Command {
	var (
		in      client.ApplyInput
		month   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "apply-template",
		Short: "Create an invoice from a template (or directly with --template omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.ContractID == "" {
				return errors.New("--contract is required")
			}
			in.Selected = time.Now()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month: %w", err)
				}
				in.Selected = t
			}

			sess := openSession(cmd)
			defer sess.close()
			st, api, ui := sess.st, sess.api, sess.ui

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			flow := client.NewApplyFlow(api, ui, st)
			flow.Log = sess.log
			flow.Schedule = func(_ time.Duration, fn func()) { fn() }
			flow.OnSuccess = func(contractID string) {
				if c, err := api.GetContract(ctx, contractID); err == nil {
					st.Dispatch(store.ContractLoaded{Contract: *c})
				}
			}

			if _, err := flow.Submit(ctx, in); err != nil {
				return err
			}
			if ui.failed {
				return errors.New("invoice was not created")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.TemplateID, "template", "", "invoice template id")
	f.StringVar(&in.ContractID, "contract", "", "contract id")
	f.StringVar(&month, "month", "", "billing month (YYYY-MM), defaults to the current month")
	f.BoolVar(&in.KeepReadings, "keep-readings", false, "carry meter readings over")
	f.BoolVar(&in.IncludeServices, "include-services", false, "include contract services (direct creation)")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}
