package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/contract"
)

// StatusCmd prints the badge and permitted actions of a status.  Without
// an argument every known status is listed.
func StatusCmd() *cobra.Command {
	var pdfURL string
	cmd := &cobra.Command{
		Use:   "status [status]",
		Short: "Describe contract statuses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := contract.AllStatuses
			if len(args) == 1 {
				statuses = []contract.Status{contract.Status(args[0])}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-18s  %-16s  %-8s  %-7s  %-11s\n", "Status", "Label", "Color", "Upload", "PDF")
			for _, s := range statuses {
				info := contract.StatusInfo(s)
				fmt.Fprintf(out, "%-18s  %-16s  %-8s  %-7t  %-11s\n",
					s, info.Label, info.Color, contract.CanUploadImages(s), contract.ResolvePDFAction(s, pdfURL))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfURL, "pdf-url", "", "stored PDF url, changes the PDF action of non-draft statuses")
	return cmd
}
