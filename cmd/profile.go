package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/tidyframe-cli/internal/analysis"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	proOutputPath string
	proSampleRows int
	proTopValues  int
	proCorr       bool
	proRead       = readFlags{sheetIndex: 1}
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/TSV/XLSX table without cleaning it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ropt, err := proRead.options()
		if err != nil {
			return err
		}
		t, err := table.Load(path, ropt)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = proSampleRows
		if proTopValues > 0 {
			opt.TopValues = proTopValues
		}
		opt.Correlations = proCorr
		opt.IQRMultiplier = currentConfig().IQRMultiplier
		md := analysis.Profile(filepath.Base(path), t, opt).Markdown()

		if proOutputPath != "" {
			if err := utils.EnsureDir(filepath.Dir(proOutputPath)); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := utils.SafeWriteFile(proOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote profile to %s\n", proOutputPath)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&proOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&proSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().IntVar(&proTopValues, "top", 5, "number of frequent categories to list per column")
	profileCmd.Flags().BoolVar(&proCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	proRead.register(profileCmd)
}
