package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tidyframe-cli/internal/pipeline"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
)

func TestFormatLogs(t *testing.T) {
	var missing, outliers pipeline.Log
	missing.Set("age", "Filled 1 with median=30.0")
	missing.Set("city", "Filled 1 with 'Missing'")
	outliers.Set("age", "Removed 1 outliers [-336.88, 638.12]")

	want := "Missing Value Log:\n" +
		"age: Filled 1 with median=30.0\n" +
		"city: Filled 1 with 'Missing'\n" +
		"\n" +
		"Outlier Log:\n" +
		"age: Removed 1 outliers [-336.88, 638.12]\n"
	if got := FormatLogs(missing, outliers); got != want {
		t.Fatalf("FormatLogs =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatLogsEmpty(t *testing.T) {
	want := "Missing Value Log:\n\nOutlier Log:\n"
	if got := FormatLogs(nil, nil); got != want {
		t.Fatalf("FormatLogs = %q, want %q", got, want)
	}
}

func TestSaveLogsCreatesDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "logs.txt")
	var missing pipeline.Log
	missing.Set("x", "Dropped rows with missing in x")
	if err := SaveLogs(p, missing, nil); err != nil {
		t.Fatalf("SaveLogs: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "x: Dropped rows with missing in x\n") {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestWriteMarkdownSummary(t *testing.T) {
	in, _ := table.ReadCSV(strings.NewReader("age,city\n25,A\n,A\n30,B\n1000,\n"), table.DefaultOptions())
	res, err := pipeline.Run(in, pipeline.Auto, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var buf bytes.Buffer
	err = WriteMarkdown(&buf, Summary{
		RunID:     "run-1",
		Input:     "data.csv",
		Strategy:  pipeline.Auto,
		Result:    res,
		Artifacts: [][2]string{{"cleaned", "cleaned_output.csv"}},
		Warnings:  []string{"heatmap: nothing to plot"},
	})
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Cleaning Summary",
		"4 x 2",
		"3 x 2",
		"Filled 1 with median=30.0",
		"## Outliers",
		"city_B",
		"cleaned_output.csv",
		"## Warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteMarkdownNoLogs(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, Summary{Strategy: pipeline.Drop}); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	if !strings.Contains(buf.String(), "No missing values.") || !strings.Contains(buf.String(), "No outliers removed.") {
		t.Fatalf("empty sections not rendered:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "## Warnings") {
		t.Fatalf("warnings section rendered without warnings")
	}
}
