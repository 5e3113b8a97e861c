package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tidyframe-cli/internal/history"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
	"github.com/spf13/cobra"
)

var histLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent cleaning runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := history.Open(currentConfig().ResolvedHistoryDir())
		if err != nil {
			return err
		}
		defer h.Close()

		entries, err := h.List(cmd.Context(), histLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No runs recorded yet in %s.\n", h.Path())
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  %-6s  %d x %d -> %d x %d  %s\n",
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Strategy,
				e.Before.Rows, e.Before.Cols, e.After.Rows, e.After.Cols, e.Input)
			fmt.Printf("    output: %s", e.OutputDir)
			if e.Warnings > 0 {
				fmt.Printf("  (%d warnings)", e.Warnings)
			}
			fmt.Println()
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the manifest recorded for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := history.Open(currentConfig().ResolvedHistoryDir())
		if err != nil {
			return err
		}
		defer h.Close()

		m, err := h.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(m)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVarP(&histLimit, "limit", "n", 20, "maximum runs to list (0 lists all)")
}
