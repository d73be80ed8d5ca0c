package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/contract"
)

// ValidateCmd runs the contract form checks on flag input.
func ValidateCmd() *cobra.Command {
	var (
		form   contract.ContractForm
		direct bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a contract form",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := contract.FlowNotification
			if direct {
				flow = contract.FlowDirect
			}
			res := contract.Validate(form, flow)
			out := cmd.OutOrStdout()
			if res.IsValid {
				fmt.Fprintln(out, "OK")
				return nil
			}
			for _, e := range res.Errors {
				fmt.Fprintln(out, "- "+e)
			}
			return errors.New("form is invalid")
		},
	}

	f := cmd.Flags()
	f.Float64Var(&form.ContractTerm, "term", 0, "contract term in months")
	f.StringVar(&form.StartDate, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&form.Rules, "rules", "", "house rules")
	f.StringVar(&form.AdditionalTerms, "additional-terms", "", "additional terms")
	f.StringVar(&form.CoTenants, "co-tenants", "", "comma separated co-tenant names")
	f.StringVar(&form.MainTenantName, "tenant", "", "main tenant name")
	f.StringVar(&form.MainTenantPhone, "phone", "", "main tenant phone")
	f.IntVar(&form.MaxOccupancy, "max-occupancy", 0, "room capacity (direct flow)")
	f.BoolVar(&direct, "direct", false, "validate as direct creation (checks room occupancy)")
	return cmd
}
