package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
	"github.com/iliyamo/rental-contracts/internal/store"
)

var errActionFailed = errors.New("contract action failed")

// ContractCmd groups the contract commands.  They talk to the API the same
// way apply-template does.
func ContractCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "List, create and manage contracts",
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	ctxOf := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}
	cmd.AddCommand(
		contractListCmd(ctxOf),
		contractShowCmd(ctxOf),
		contractCreateCmd(ctxOf),
		contractUpdateCmd(ctxOf),
		contractPDFCmd(ctxOf),
		contractImagesCmd(ctxOf),
	)
	return cmd
}

type ctxFunc func(*cobra.Command) (context.Context, context.CancelFunc)

func contractListCmd(ctxOf ctxFunc) *cobra.Command {
	var (
		page, limit int
		status      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			res, err := sess.api.ListContracts(ctx, page, limit, contract.Status(status))
			if err != nil {
				return err
			}
			sess.st.Dispatch(store.ContractsListed{Page: *res})

			snap := sess.st.Snapshot()
			out := cmd.OutOrStdout()
			for _, id := range snap.ListOrder {
				c := snap.Contracts[id]
				fmt.Fprintf(out, "%-36s  %-18s  %s → %s\n", c.ID, contract.StatusInfo(c.Status).Label, c.ContractInfo.StartDate, c.ContractInfo.EndDate)
			}
			fmt.Fprintf(out, "%d/%d\n", len(snap.ListOrder), snap.ListTotal)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "page number")
	f.IntVar(&limit, "limit", 10, "page size")
	f.StringVar(&status, "status", "", "only contracts in this status")
	return cmd
}

func contractShowCmd(ctxOf ctxFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			c, err := sess.contractFlow().Refresh(ctx, args[0])
			if err != nil {
				return err
			}
			printContract(cmd.OutOrStdout(), *c)
			return nil
		},
	}
}

func contractCreateCmd(ctxOf ctxFunc) *cobra.Command {
	var (
		req          model.CreateContractRequest
		maxOccupancy int
		services     []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.CustomServices, err = parseServices(services); err != nil {
				return err
			}
			flow := contract.FlowDirect
			if req.NotificationID != "" {
				flow = contract.FlowNotification
			}

			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			c, res := sess.contractFlow().Create(ctx, req, flow, maxOccupancy)
			if !res.IsValid || c == nil {
				return errActionFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), "contract: "+c.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.RoomID, "room", "", "room id")
	f.StringVar(&req.NotificationID, "notification", "", "rental request id (notification flow)")
	f.Float64Var(&req.ContractTerm, "term", 0, "contract term in months")
	f.StringVar(&req.StartDate, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&req.Rules, "rules", "", "house rules")
	f.StringVar(&req.AdditionalTerms, "additional-terms", "", "additional terms")
	f.StringVar(&req.CoTenants, "co-tenants", "", "comma separated co-tenant names")
	f.StringVar(&req.Tenant.Name, "tenant", "", "main tenant name")
	f.StringVar(&req.Tenant.Phone, "phone", "", "main tenant phone")
	f.IntVar(&maxOccupancy, "max-occupancy", 0, "room capacity (direct flow)")
	f.StringArrayVar(&services, "service", nil, "custom service as name:price:priceType (repeatable)")
	return cmd
}

func contractUpdateCmd(ctxOf ctxFunc) *cobra.Command {
	var (
		rules, additional string
		services          []string
		clearServices     bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit rules, additional terms and services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseServices(services)
			if err != nil {
				return err
			}

			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			flow := sess.contractFlow()
			c, err := flow.Refresh(ctx, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("rules") {
				rules = c.ContractInfo.Rules
			}
			if !cmd.Flags().Changed("additional-terms") {
				additional = c.ContractInfo.AdditionalTerms
			}
			if len(selected) == 0 && !clearServices {
				selected = c.CustomServices
			}
			if !flow.Update(ctx, *c, rules, additional, selected) {
				return errActionFailed
			}
			if fresh, ok := sess.st.Contract(c.ID); ok {
				printContract(cmd.OutOrStdout(), fresh)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&rules, "rules", "", "house rules")
	f.StringVar(&additional, "additional-terms", "", "additional terms")
	f.StringArrayVar(&services, "service", nil, "selected service as name:price:priceType (repeatable, replaces the current set)")
	f.BoolVar(&clearServices, "clear-services", false, "remove every custom service")
	return cmd
}

func contractPDFCmd(ctxOf ctxFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <id>",
		Short: "Generate the PDF of a draft or print the stored one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			flow := sess.contractFlow()
			c, err := flow.Refresh(ctx, args[0])
			if err != nil {
				return err
			}
			flow.OpenPDF(ctx, *c)
			if sess.ui.failed {
				return errActionFailed
			}
			return nil
		},
	}
}

func contractImagesCmd(ctxOf ctxFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "images <id> <url>...",
		Short: "Attach signed contract scans",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := openSession(cmd)
			defer sess.close()
			ctx, cancel := ctxOf(cmd)
			defer cancel()

			flow := sess.contractFlow()
			c, err := flow.Refresh(ctx, args[0])
			if err != nil {
				return err
			}
			if !flow.UploadImages(ctx, *c, args[1:]) {
				return errActionFailed
			}
			return nil
		},
	}
}

// parseServices reads name:price:priceType entries.
func parseServices(raw []string) ([]contract.CustomService, error) {
	out := make([]contract.CustomService, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("--service %q: want name:price:priceType", r)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("--service %q: %w", r, err)
		}
		pt := contract.PriceType(strings.TrimSpace(parts[2]))
		if !pt.Valid() {
			return nil, fmt.Errorf("--service %q: unknown price type %q", r, pt)
		}
		out = append(out, contract.CustomService{Name: strings.TrimSpace(parts[0]), Price: price, PriceType: pt})
	}
	return out, nil
}

func printContract(w io.Writer, c model.Contract) {
	info := contract.StatusInfo(c.Status)
	fmt.Fprintf(w, "%s  %s\n", c.ID, info.Label)
	fmt.Fprintf(w, "  %s → %s (%d tháng)\n", c.ContractInfo.StartDate, c.ContractInfo.EndDate, c.ContractInfo.ContractTerm)
	for _, s := range c.CustomServices {
		fmt.Fprintf(w, "  - %s: %s (%s)\n", s.Name, s.Price.String(), s.PriceType)
	}
	if len(c.SignedContractImages) > 0 {
		fmt.Fprintf(w, "  ảnh: %d\n", len(c.SignedContractImages))
	}
}
