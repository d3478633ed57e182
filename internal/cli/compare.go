package cli

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/cable"
	"github.com/matzehuels/cablenet/pkg/instance"
	"github.com/matzehuels/cablenet/pkg/milp"
	"github.com/matzehuels/cablenet/pkg/pipeline"
)

func (c *CLI) compareCommand() *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "compare [instance.json...]",
		Short: "Solve instances with the reduced and the full candidate set",
		Long: `Compare solves every instance twice, once over the Delaunay-based reduced
candidate set and once over all turbine pairs, and prints time, cost and
crossings side by side.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompare(cmd, args, &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().Lookup("mode").Hidden = true

	return cmd
}

func (c *CLI) runCompare(cmd *cobra.Command, paths []string, flags *solveFlags) error {
	ctx := cmd.Context()
	opts := c.options(cmd, flags)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var results []*pipeline.Comparison
	for _, path := range paths {
		inst, err := instance.Load(path)
		if err != nil {
			return err
		}
		in, err := pipeline.NewInput(inst)
		if err != nil {
			return err
		}
		c.Logger.Infof("Comparing %s", in.Name())
		cmp, err := runner.Compare(ctx, in, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, cmp)
	}

	fmt.Println(comparisonTable(results))
	return nil
}

func comparisonTable(results []*pipeline.Comparison) string {
	rows := make([][]string, len(results))
	for i, cmp := range results {
		red, full := cmp.Reduced, cmp.Full
		rows[i] = []string{
			cmp.Input.Name(),
			fmt.Sprintf("%d", red.Stats.Turbines),
			fmt.Sprintf("%d", red.Stats.Substations),
			fmt.Sprintf("%d / %d", red.Stats.CandidateEdges, full.Stats.CandidateEdges),
			formatSeconds(red.Solution.Elapsed),
			formatSeconds(full.Solution.Elapsed),
			formatCost(red.Solution),
			formatCost(full.Solution),
			fmt.Sprintf("%d / %d", red.Solution.Crossings, full.Solution.Crossings),
			formatRatio(cmp.CostRatio()),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Instance", "N", "S", "Edges R/F", "T reduced", "T full", "Cost reduced", "Cost full", "Crossings", "Ratio").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				style = style.Align(lipgloss.Right)
			}
			return style
		}).
		Render()
}

func formatCost(sol *cable.Solution) string {
	if !sol.Found() {
		return sol.Status.String()
	}
	s := fmt.Sprintf("%.2f", sol.Cost)
	if sol.Status != milp.StatusOptimal {
		s += "*"
	}
	return s
}

func formatRatio(r float64) string {
	if math.IsNaN(r) {
		return "-"
	}
	return fmt.Sprintf("%.4f", r)
}
