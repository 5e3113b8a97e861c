package report

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/KaramelBytes/tidyframe-cli/internal/pipeline"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

// Summary describes a finished run for the Markdown report.
type Summary struct {
	RunID    string
	Input    string
	Strategy pipeline.Strategy
	Result   *pipeline.Result
	// Artifacts lists label/path pairs in display order.
	Artifacts [][2]string
	Warnings  []string
}

// WriteMarkdown renders s as a Markdown document.
func WriteMarkdown(w io.Writer, s Summary) error {
	md := markdown.NewMarkdown(w)
	md.H1("Cleaning Summary")
	md.PlainText("")

	res := s.Result
	if res == nil {
		res = &pipeline.Result{}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + s.RunID + "`"},
			{"Input", "`" + s.Input + "`"},
			{"Strategy", s.Strategy.String()},
			{"Shape before", shape(res.RowsBefore, res.ColsBefore)},
			{"Shape after", shape(res.RowsAfter, res.ColsAfter)},
		},
	})
	md.PlainText("")

	writeLogSection(md, "Missing Values", res.MissingLog, "No missing values.")
	writeLogSection(md, "Outliers", res.OutlierLog, "No outliers removed.")

	if res.Table != nil && res.Table.Width() > 0 {
		md.H2("Output Columns")
		md.PlainText("")
		md.BulletList(res.Table.Names()...)
		md.PlainText("")
	}

	if len(s.Artifacts) > 0 {
		md.H2("Artifacts")
		md.PlainText("")
		rows := make([][]string, len(s.Artifacts))
		for i, a := range s.Artifacts {
			rows[i] = []string{a[0], "`" + a[1] + "`"}
		}
		md.Table(markdown.TableSet{Header: []string{"Artifact", "Path"}, Rows: rows})
		md.PlainText("")
	}

	if len(s.Warnings) > 0 {
		md.H2("Warnings")
		md.PlainText("")
		md.BulletList(s.Warnings...)
		md.PlainText("")
	}
	return md.Build()
}

// SaveMarkdown writes the summary to path.
func SaveMarkdown(path string, s Summary) error {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, s); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func writeLogSection(md *markdown.Markdown, title string, log pipeline.Log, empty string) {
	md.H2(title)
	md.PlainText("")
	if len(log) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}
	rows := make([][]string, len(log))
	for i, e := range log {
		rows[i] = []string{e.Column, e.Description}
	}
	md.Table(markdown.TableSet{Header: []string{"Column", "Action"}, Rows: rows})
	md.PlainText("")
}

func shape(rows, cols int) string {
	return strconv.Itoa(rows) + " x " + strconv.Itoa(cols)
}
