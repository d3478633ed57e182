package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cablenet/pkg/runs"
)

func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recorded solve runs",
	}
	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var opts runs.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No runs recorded")
				return nil
			}
			fmt.Println(runsTable(list))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Instance, "instance", "i", "", "only runs of this instance (name or hash)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", runs.DefaultListLimit, "maximum number of runs")

	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a run with its solution as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}
}

func runsTable(list []*runs.Run) string {
	rows := make([][]string, len(list))
	for i, r := range list {
		cached := ""
		if r.Cached {
			cached = iconCached
		}
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Instance,
			string(r.Mode),
			fmt.Sprintf("%d", r.Capacity),
			r.Status,
			fmt.Sprintf("%.2f", r.Cost),
			fmt.Sprintf("%.2fs", r.Seconds),
			cached,
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Instance", "Mode", "Cap", "Status", "Cost", "Time", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return style.Foreground(colorDim)
			case col == 5 && list[row].Optimal():
				return style.Foreground(colorGreen)
			case col == 5:
				return style.Foreground(colorYellow)
			}
			return style
		}).
		Render()
}
