package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/benefitlimits/internal/cli/formatter"
	"github.com/carelink/benefitlimits/internal/limittree"
	"github.com/carelink/benefitlimits/internal/utilization"
)

func newTreeCmd() *cobra.Command {
	var collapsed []string
	var low, high float64

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Render a plan's limit tree",
		Long: "Render the limit tree of a plan file (JSON, or YAML by extension) with\n" +
			"utilization bars and totals. Repeat --collapse to hide a node's children.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th := limittree.Thresholds{Low: low, High: high}
			if err := th.Validate(); err != nil {
				return err
			}

			doc, forest, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			exp := limittree.NewExpansionFromCollapsed(collapsed)
			rows := utilization.BuildRows(forest, exp, th)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", formatter.Bold(doc.Plan.Name), formatter.Dim("("+doc.Plan.ID+")"))
			fmt.Fprint(out, formatter.RenderLimitTree(rows, doc.Plan.Currency))
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.RenderSummary(limittree.Aggregate(forest), limittree.CountByKind(forest), doc.Plan.Currency))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&collapsed, "collapse", nil, "Node ID to collapse (repeatable)")
	cmd.Flags().Float64Var(&low, "low", limittree.DefaultThresholds.Low, "Low usage threshold (percent)")
	cmd.Flags().Float64Var(&high, "high", limittree.DefaultThresholds.High, "High usage threshold (percent)")

	return cmd
}
