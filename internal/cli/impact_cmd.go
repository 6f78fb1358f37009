package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/benefitlimits/internal/cli/formatter"
	"github.com/carelink/benefitlimits/internal/domain"
	"github.com/carelink/benefitlimits/internal/limittree"
	"github.com/carelink/benefitlimits/internal/utilization"
)

func newImpactCmd() *cobra.Command {
	var serviceType string

	cmd := &cobra.Command{
		Use:   "impact FILE",
		Short: "List the limits a claim of a service type would hit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := domain.NormalizeServiceType(serviceType)
			if st == "" {
				return &domain.ValidationError{Field: "service-type", Reason: "must not be empty"}
			}

			_, forest, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			claim := domain.Claim{ServiceType: st}
			ids := limittree.ResolveImpact(claim, forest)
			impact := &utilization.ClaimImpact{
				Claim:         claim,
				ImpactedIDs:   ids,
				ImpactedNames: limittree.ImpactedLimitNames(claim, forest),
				Applicable:    limittree.IsApplicable(ids),
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderImpact(st, impact))
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceType, "service-type", "", "Claim service type code, e.g. DT")
	_ = cmd.MarkFlagRequired("service-type")

	return cmd
}
