package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "benefitlimits" command and registers
// all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "benefitlimits",
		Short:         "Benefit limit trees, claim impact and utilization review",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newTreeCmd(),
		newImpactCmd(),
	)

	return root
}
