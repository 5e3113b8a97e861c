package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	cbStrategy  string
	cbOutputDir string
	cbNoVisuals bool
	cbSummary   bool
	cbKeepGoing bool
	cbQuiet     bool
	cbRead      = readFlags{sheetIndex: 1}
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX files, one output directory per input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		c := currentConfig()
		base, err := newCleanParams(cmd, c, cbStrategy, cbRead)
		if err != nil {
			return err
		}
		root := c.OutputDir
		if cbOutputDir != "" {
			root = cbOutputDir
		}

		total := len(files)
		var failed []string
		for i, path := range files {
			if !cbQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			p := base
			p.outDir = batchOutputDir(root, path, cbRead.sheetName)
			p.noVisuals = cbNoVisuals
			p.summary = cbSummary

			out, err := cleanFile(cmd.Context(), path, c, p)
			if err != nil {
				if !cbKeepGoing {
					return err
				}
				fmt.Fprintf(os.Stderr, "⚠ Warning: %s: %v\n", path, err)
				failed = append(failed, path)
				continue
			}
			if !cbQuiet {
				printOutcome(path, out)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d files failed: %s", len(failed), total, strings.Join(failed, ", "))
		}
		if !cbQuiet {
			fmt.Printf("✓ Cleaned %d files into %s\n", total, root)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVarP(&cbStrategy, "strategy", "s", "auto", "missing-value strategy: auto | custom | drop (default from config)")
	cleanBatchCmd.Flags().StringVarP(&cbOutputDir, "output-dir", "o", "", "root directory; each input gets its own subdirectory (default from config)")
	cleanBatchCmd.Flags().BoolVar(&cbNoVisuals, "no-visuals", false, "skip rendering plots")
	cleanBatchCmd.Flags().BoolVar(&cbSummary, "summary", false, "also write a Markdown run summary per input")
	cleanBatchCmd.Flags().BoolVar(&cbKeepGoing, "keep-going", false, "continue with the next file when one fails")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress and non-essential output")
	cbRead.register(cleanBatchCmd)
}

// expandInputs resolves globs, keeps literal paths that exist, and returns
// the unique matches sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputDir names the per-input directory after the file's base name
// (plus the sheet, when one was chosen). An existing directory gets a __N
// suffix instead of being overwritten.
func batchOutputDir(root, path, sheet string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if sheet != "" {
		name += "__sheet-" + slugify(sheet, "sheet")
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); err != nil {
		return dir
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(root, fmt.Sprintf("%s__%d", name, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			if !cbQuiet {
				fmt.Printf("⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(cand))
			}
			return cand
		}
	}
}

// slugify keeps lowercase letters and digits and turns separators into '-'.
func slugify(s, fallback string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return fallback
	}
	return out
}
