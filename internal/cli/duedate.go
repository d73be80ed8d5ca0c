package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/billing"
)

// DueDateCmd prints the invoice due date of a billing month.
func DueDateCmd() *cobra.Command {
	var month, today string
	cmd := &cobra.Command{
		Use:   "due-date",
		Short: "Print the due date of a billing month",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if today != "" {
				t, err := billing.ParseDate(today)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				now = t
			}
			selected := now
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month: %w", err)
				}
				selected = t
			}
			fmt.Fprintln(cmd.OutOrStdout(), billing.FormatDate(billing.DueDate(selected, now)))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "billing month (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&today, "today", "", "override today's date (YYYY-MM-DD)")
	return cmd
}
