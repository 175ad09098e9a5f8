package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var budgetEpsilon float64

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Report the privacy budget status and noise scale for an epsilon",
	RunE: func(cmd *cobra.Command, args []string) error {
		eps := cfg.DefaultEpsilon
		if cmd.Flags().Changed("epsilon") {
			eps = budgetEpsilon
		}
		engine := buildEngine(cfg)
		b := engine.BudgetStatus(eps)
		fmt.Fprintf(cmd.OutOrStdout(), "epsilon: %g\nstatus:  %s\nscale:   %g\n", b.Epsilon, b.Status, engine.Scale(eps))
		return nil
	},
}

func init() {
	budgetCmd.Flags().Float64Var(&budgetEpsilon, "epsilon", 0, "privacy parameter (default: DEFAULT_EPSILON)")
}
