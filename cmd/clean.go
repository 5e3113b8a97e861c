package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/tidyframe-cli/internal/config"
	"github.com/KaramelBytes/tidyframe-cli/internal/history"
	"github.com/KaramelBytes/tidyframe-cli/internal/logger"
	"github.com/KaramelBytes/tidyframe-cli/internal/pipeline"
	"github.com/KaramelBytes/tidyframe-cli/internal/report"
	"github.com/KaramelBytes/tidyframe-cli/internal/run"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
	"github.com/KaramelBytes/tidyframe-cli/internal/visual"
	"github.com/spf13/cobra"
)

// SummaryFile is written next to the cleaned table when --summary is set.
const SummaryFile = "summary.md"

var (
	clnStrategy    string
	clnOutputDir   string
	clnVisualsDir  string
	clnNoVisuals   bool
	clnSummary     bool
	clnPreviewRows int
	clnRead        = readFlags{sheetIndex: 1}
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a CSV/TSV/XLSX table and write the cleaned data, logs and plots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		p, err := newCleanParams(cmd, c, clnStrategy, clnRead)
		if err != nil {
			return err
		}
		p.outDir = c.OutputDir
		if clnOutputDir != "" {
			p.outDir = clnOutputDir
		}
		p.visualsDir = clnVisualsDir
		p.noVisuals = clnNoVisuals
		p.summary = clnSummary
		p.preview = c.PreviewRows
		if cmd.Flags().Changed("preview-rows") {
			p.preview = clnPreviewRows
		}

		out, err := cleanFile(cmd.Context(), args[0], c, p)
		if err != nil {
			return err
		}
		printOutcome(args[0], out)
		return nil
	},
}

// cleanParams carries the per-invocation choices of clean and clean-batch.
type cleanParams struct {
	strategy   pipeline.Strategy
	read       table.Options
	outDir     string
	visualsDir string
	noVisuals  bool
	summary    bool
	preview    int
}

type cleanOutcome struct {
	result       *pipeline.Result
	manifest     *run.Manifest
	manifestPath string
}

func newCleanParams(cmd *cobra.Command, c *cfgpkg.Global, strategyFlag string, rf readFlags) (cleanParams, error) {
	name := c.DefaultStrategy
	if cmd.Flags().Changed("strategy") {
		name = strategyFlag
	}
	strategy, err := pipeline.ParseStrategy(name)
	if err != nil {
		return cleanParams{}, err
	}
	opt, err := rf.options()
	if err != nil {
		return cleanParams{}, err
	}
	return cleanParams{strategy: strategy, read: opt}, nil
}

// cleanFile runs the pipeline on one input and writes every artifact into
// p.outDir. Plot failures are recorded as manifest warnings.
func cleanFile(ctx context.Context, path string, c *cfgpkg.Global, p cleanParams) (*cleanOutcome, error) {
	log := logger.FromContext(ctx).With("input", path)
	raw, err := table.Load(path, p.read)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debug("table loaded", "rows", raw.Rows(), "cols", raw.Width())

	if p.preview > 0 && raw.Width() > 0 {
		fmt.Printf("Raw data (first %d rows):\n\n", min(p.preview, raw.Rows()))
		if err := table.Preview(os.Stdout, raw, p.preview); err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		fmt.Println()
	}

	res, err := pipeline.Run(raw, p.strategy, pipeline.Options{
		MissingMarker: c.MissingMarker,
		IQRMultiplier: c.IQRMultiplier,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureDir(p.outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	man := run.New(path, p.strategy.String())
	man.Before = run.Shape{Rows: res.RowsBefore, Cols: res.ColsBefore}
	man.After = run.Shape{Rows: res.RowsAfter, Cols: res.ColsAfter}

	cleanedPath := filepath.Join(p.outDir, c.CleanedFile)
	if err := table.SaveCSV(cleanedPath, res.Table); err != nil {
		return nil, fmt.Errorf("write cleaned table: %w", err)
	}
	man.AddArtifact("cleaned", cleanedPath)
	logPath := filepath.Join(p.outDir, c.LogFile)
	if err := report.SaveLogs(logPath, res.MissingLog, res.OutlierLog); err != nil {
		return nil, fmt.Errorf("write logs: %w", err)
	}
	man.AddArtifact("logs", logPath)

	if !p.noVisuals {
		visDir := p.visualsDir
		if visDir == "" {
			visDir = c.VisualsDir
			if !filepath.IsAbs(visDir) {
				visDir = filepath.Join(p.outDir, visDir)
			}
		}
		art, err := visual.Render(ctx, raw, res.Table, visDir)
		if art != nil {
			man.AddArtifact("hist_before", art.HistBefore)
			man.AddArtifact("hist_after", art.HistAfter)
			man.AddArtifact("heatmap", art.Heatmap)
		}
		for _, e := range splitErrors(err) {
			fmt.Fprintf(os.Stderr, "⚠ Warning: visualization failed: %v\n", e)
			man.Warn(e.Error())
		}
	}

	if p.summary {
		summaryPath := filepath.Join(p.outDir, SummaryFile)
		man.AddArtifact("summary", summaryPath)
		err := report.SaveMarkdown(summaryPath, report.Summary{
			RunID:     man.ID,
			Input:     path,
			Strategy:  p.strategy,
			Result:    res,
			Artifacts: sortedArtifacts(man.Artifacts),
			Warnings:  man.Warnings,
		})
		if err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}
	manPath, err := man.Save(p.outDir)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if c.RecordHistory {
		if err := recordHistory(ctx, c.ResolvedHistoryDir(), man, p.outDir); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: run not added to history: %v\n", err)
		}
	}
	return &cleanOutcome{result: res, manifest: man, manifestPath: manPath}, nil
}

func recordHistory(ctx context.Context, dir string, man *run.Manifest, outDir string) error {
	h, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer h.Close()
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	return h.Record(ctx, man, outDir)
}

func printOutcome(path string, out *cleanOutcome) {
	res := out.result
	fmt.Printf("✓ Cleaned %s with strategy '%s': %d x %d -> %d x %d\n",
		filepath.Base(path), out.manifest.Strategy, res.RowsBefore, res.ColsBefore, res.RowsAfter, res.ColsAfter)
	for _, e := range res.MissingLog {
		fmt.Printf("  missing  %s: %s\n", e.Column, e.Description)
	}
	for _, e := range res.OutlierLog {
		fmt.Printf("  outliers %s: %s\n", e.Column, e.Description)
	}
	for _, a := range sortedArtifacts(out.manifest.Artifacts) {
		fmt.Printf("✓ Wrote %s\n", a[1])
	}
	fmt.Printf("✓ Run %s recorded in %s\n", out.manifest.ID, out.manifestPath)
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnStrategy, "strategy", "s", "auto", "missing-value strategy: auto | custom | drop (default from config)")
	cleanCmd.Flags().StringVarP(&clnOutputDir, "output-dir", "o", "", "directory for the cleaned table, logs and manifest (default from config)")
	cleanCmd.Flags().StringVar(&clnVisualsDir, "visuals-dir", "", "directory for the plots (default <output-dir>/visuals)")
	cleanCmd.Flags().BoolVar(&clnNoVisuals, "no-visuals", false, "skip rendering plots")
	cleanCmd.Flags().BoolVar(&clnSummary, "summary", false, "also write a Markdown run summary")
	cleanCmd.Flags().IntVar(&clnPreviewRows, "preview-rows", 5, "rows of raw data to print before cleaning (0 disables)")
	clnRead.register(cleanCmd)
}

// splitErrors flattens an errors.Join result.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}

// artifactOrder fixes the display order of manifest artifacts.
var artifactOrder = []string{"cleaned", "logs", "hist_before", "hist_after", "heatmap", "summary"}

func sortedArtifacts(m map[string]string) [][2]string {
	var out [][2]string
	for _, k := range artifactOrder {
		if p, ok := m[k]; ok {
			out = append(out, [2]string{k, p})
		}
	}
	return out
}
