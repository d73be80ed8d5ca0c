// Package cli holds the rentctl commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd assembles rentctl.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rentctl",
		Short:         "Rental contract and invoice tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		ValidateCmd(),
		DueDateCmd(),
		StatusCmd(),
		ApplyTemplateCmd(),
		ContractCmd(),
	)
	return root
}
