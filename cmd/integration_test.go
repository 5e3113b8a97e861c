package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tidyframe-cli/internal/history"
	"github.com/KaramelBytes/tidyframe-cli/internal/logger"
	"github.com/KaramelBytes/tidyframe-cli/internal/run"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
	"github.com/KaramelBytes/tidyframe-cli/internal/visual"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const ageCityCSV = "age,city\n25,A\n,A\n30,B\n1000,\n"

// resetFlags restores every flag to its default and clears the Changed state
// that would otherwise leak between invocations of the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args against an
// isolated config file.
func runCmd(t *testing.T, cfgPath string, args ...string) error {
	t.Helper()
	t.Setenv("TIDYFRAME_HISTORY_DIR", filepath.Join(filepath.Dir(cfgPath), "history"))
	resetFlags(rootCmd)
	clnRead.reset()
	cbRead.reset()
	proRead.reset()
	cfg = nil
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	return rootCmd.Execute()
}

func mustRun(t *testing.T, cfgPath string, args ...string) {
	t.Helper()
	if err := runCmd(t, cfgPath, args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return p
}

func TestCLI_CleanWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "clean", in, "-o", out, "--summary", "--preview-rows", "0")

	f, err := os.Open(filepath.Join(out, "cleaned_output.csv"))
	if err != nil {
		t.Fatalf("open cleaned: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read cleaned: %v", err)
	}
	if len(recs) != 4 || strings.Join(recs[0], ",") != "age,city_B" {
		t.Fatalf("cleaned table = %v", recs)
	}

	logs, err := os.ReadFile(filepath.Join(out, "logs.txt"))
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	for _, want := range []string{
		"Missing Value Log:\nage: Filled 1 with median=30.0\ncity: Filled 1 with 'Missing'\n",
		"\nOutlier Log:\nage: Removed 1 outliers [-336.88, ",
	} {
		if !strings.Contains(string(logs), want) {
			t.Errorf("logs missing %q:\n%s", want, logs)
		}
	}

	for _, name := range []string{visual.HistBeforeFile, visual.HistAfterFile, visual.HeatmapFile} {
		b, err := os.ReadFile(filepath.Join(out, "visuals", name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if !bytes.HasPrefix(b, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", name)
		}
	}

	man, err := run.Load(out)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if man.Strategy != "auto" || man.Before.Rows != 4 || man.After.Rows != 3 || man.After.Cols != 2 {
		t.Fatalf("manifest = %+v", man)
	}
	if _, ok := man.Artifacts["summary"]; !ok {
		t.Fatalf("summary not recorded: %v", man.Artifacts)
	}
	summary, err := os.ReadFile(filepath.Join(out, SummaryFile))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(summary), man.ID) {
		t.Fatalf("summary does not mention run %s", man.ID)
	}
}

func TestCLI_CleanNoVisualsAndDropStrategy(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "clean", in, "-o", out, "--no-visuals", "-s", "drop")

	if _, err := os.Stat(filepath.Join(out, "visuals")); !os.IsNotExist(err) {
		t.Fatalf("visuals rendered despite --no-visuals: %v", err)
	}
	logs, err := os.ReadFile(filepath.Join(out, "logs.txt"))
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	if !strings.Contains(string(logs), "age: Dropped rows with missing in age") {
		t.Fatalf("logs = %s", logs)
	}
	man, err := run.Load(out)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if man.Strategy != "drop" || len(man.Artifacts) != 2 {
		t.Fatalf("manifest = %+v", man)
	}
}

func TestCLI_CleanRejectsUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	out := filepath.Join(dir, "out")
	err := runCmd(t, filepath.Join(dir, "config.yaml"), "clean", in, "-o", out, "-s", "interpolate")
	if err == nil || !strings.Contains(err.Error(), "interpolate") {
		t.Fatalf("expected unknown strategy error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written for rejected strategy")
	}
}

func TestCLI_ConfigDefaultStrategyDrivesClean(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "config", "set", "default_strategy", "custom")
	if err := runCmd(t, cfgPath, "config", "set", "default_strategy", "bogus"); err == nil {
		t.Fatalf("expected invalid default_strategy to be rejected")
	}
	mustRun(t, cfgPath, "config", "show")
	mustRun(t, cfgPath, "clean", in, "-o", out, "--no-visuals", "--preview-rows", "0")

	logs, err := os.ReadFile(filepath.Join(out, "logs.txt"))
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	// mean of 25, 30, 1000
	if !strings.Contains(string(logs), "age: Filled 1 with 351.6666666666667") {
		t.Fatalf("custom strategy not applied:\n%s", logs)
	}
}

func TestCLI_CleanExtraNAValues(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", "age,city\n25,A\n?,A\n30,B\n1000,\n")
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "clean", in, "-o", out, "--no-visuals", "--preview-rows", "0",
		"-s", "custom", "--na-values", "?, -")

	logs, err := os.ReadFile(filepath.Join(out, "logs.txt"))
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	if !strings.Contains(string(logs), "age: Filled 1 with 351.6666666666667") {
		t.Fatalf("'?' not read as missing:\n%s", logs)
	}
}

func TestReadFlagsNAValues(t *testing.T) {
	opt, err := readFlags{naValues: " ?,,--"}.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opt.NAValues) != len(table.DefaultNAValues)+2 {
		t.Fatalf("NAValues = %q", opt.NAValues)
	}
	if got := opt.NAValues[len(opt.NAValues)-2:]; got[0] != "?" || got[1] != "--" {
		t.Fatalf("extra markers = %q", got)
	}
	opt, err = readFlags{}.options()
	if err != nil || opt.NAValues != nil {
		t.Fatalf("no flag should keep the defaults, got %q (%v)", opt.NAValues, err)
	}
}

func TestCLI_CommandContextCarriesLogger(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	mustRun(t, cfgPath, "config", "show")
	if appLog == nil {
		t.Fatalf("logger not configured")
	}
	if got := logger.FromContext(configShowCmd.Context()); got != appLog {
		t.Fatalf("command context carries %p, want %p", got, appLog)
	}
}

func TestCLI_CleanBatchCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	for _, sub := range []string{"d1", "d2"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		writeInput(t, filepath.Join(dir, sub), "metrics.csv", ageCityCSV)
	}
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "clean-batch", filepath.Join(dir, "d*", "metrics.csv"), "-o", out, "--no-visuals", "--quiet")

	for _, sub := range []string{"metrics", "metrics__2"} {
		if _, err := os.Stat(filepath.Join(out, sub, "cleaned_output.csv")); err != nil {
			t.Fatalf("missing output for %s: %v", sub, err)
		}
		if _, err := run.Load(filepath.Join(out, sub)); err != nil {
			t.Fatalf("manifest for %s: %v", sub, err)
		}
	}
}

func TestCLI_CleanBatchKeepGoing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	good := writeInput(t, dir, "good.csv", ageCityCSV)
	bad := writeInput(t, dir, "bad.csv", "a,b\n1,2,3\n")
	out := filepath.Join(dir, "out")

	err := runCmd(t, cfgPath, "clean-batch", good, bad, "-o", out, "--no-visuals", "--quiet", "--keep-going")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "good", "cleaned_output.csv")); err != nil {
		t.Fatalf("good file not cleaned: %v", err)
	}

	if err := runCmd(t, cfgPath, "clean-batch", filepath.Join(dir, "*.parquet"), "-o", out); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}

func TestCLI_HistoryRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	out := filepath.Join(dir, "out")

	mustRun(t, cfgPath, "clean", in, "-o", out, "--no-visuals", "--preview-rows", "0")
	man, err := run.Load(out)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}

	h, err := history.Open(filepath.Join(dir, "history"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	entries, err := h.List(context.Background(), 0)
	_ = h.Close()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != man.ID || entries[0].Input != in {
		t.Fatalf("history = %+v", entries)
	}

	mustRun(t, cfgPath, "history", "-n", "5")
	mustRun(t, cfgPath, "history", "show", man.ID)
	if err := runCmd(t, cfgPath, "history", "show", "no-such-run"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mustRun(t, cfgPath, "config", "set", "record_history", "false")
	mustRun(t, cfgPath, "clean", in, "-o", filepath.Join(dir, "out2"), "--no-visuals", "--preview-rows", "0")
	h, err = history.Open(filepath.Join(dir, "history"))
	if err != nil {
		t.Fatalf("reopen history: %v", err)
	}
	defer h.Close()
	if entries, _ := h.List(context.Background(), 0); len(entries) != 1 {
		t.Fatalf("run recorded with record_history=false: %+v", entries)
	}
}

func TestCLI_ProfileToFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	in := writeInput(t, dir, "people.csv", ageCityCSV)
	outFile := filepath.Join(dir, "people.profile.md")

	mustRun(t, cfgPath, "profile", in, "--output", outFile, "--sample-rows", "0")

	b, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	md := string(b)
	if !strings.Contains(md, "[DATASET SUMMARY]") || !strings.Contains(md, "age") {
		t.Fatalf("unexpected profile:\n%s", md)
	}
	if strings.Contains(md, "[HEAD AND SAMPLE ROWS]") {
		t.Fatalf("sample rows present despite --sample-rows 0")
	}
}

func TestBatchOutputDirAndSlugify(t *testing.T) {
	root := t.TempDir()
	if got := batchOutputDir(root, "/data/sales.xlsx", "Q1 Totals"); got != filepath.Join(root, "sales__sheet-q1-totals") {
		t.Fatalf("batchOutputDir = %s", got)
	}
	if err := os.MkdirAll(filepath.Join(root, "sales"), 0o755); err != nil {
		t.Fatal(err)
	}
	cbQuiet = true
	defer func() { cbQuiet = false }()
	if got := batchOutputDir(root, "sales.csv", ""); got != filepath.Join(root, "sales__2") {
		t.Fatalf("collision dir = %s", got)
	}
	if got := slugify("  ***  ", "sheet"); got != "sheet" {
		t.Fatalf("slugify fallback = %q", got)
	}
}
