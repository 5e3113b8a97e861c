// Package analysis profiles a raw table before cleaning: per-column types,
// missingness, numeric statistics, IQR outlier counts, frequent categories
// and pairwise correlations.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/KaramelBytes/tidyframe-cli/internal/stats"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
)

// Options controls profiling.
type Options struct {
	// SampleRows is how many leading rows the report shows.
	SampleRows int
	// TopValues is how many frequent categories are listed per column.
	TopValues int
	// IQRMultiplier sets the outlier fences, as in the cleaning pipeline.
	IQRMultiplier float64
	// Correlations enables the pairwise Pearson section.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 5, IQRMultiplier: 1.5, Correlations: true}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Corr     *CorrMatrix
	Warnings []string
}

// ColumnSummary captures the inferred type and statistics of one column.
type ColumnSummary struct {
	Name    string
	Kind    table.Kind
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Std float64
	Median, Q1, Q3      float64
	// IQR fences and how many values fall outside them.
	Lower, Upper  float64
	OutliersCount int
	// Categorical
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Profile summarizes t. name labels the report, usually the input file name.
func Profile(name string, t *table.Table, opt Options) *Report {
	if opt.IQRMultiplier <= 0 {
		opt.IQRMultiplier = 1.5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	rep := &Report{Name: name, Rows: t.Rows()}

	var numVals [][]float64
	var numPresent [][]bool
	var numNames []string
	for _, c := range t.Columns {
		clean, unit := splitUnits(c.Name)
		cs := ColumnSummary{
			Name:    clean,
			Unit:    unit,
			Kind:    c.Kind(),
			Missing: c.MissingCount(),
			Unique:  c.Distinct(),
		}
		cs.NonNull = len(c.Cells) - cs.Missing
		switch cs.Kind {
		case table.Numeric:
			summarizeNumeric(&cs, c.Numbers(), opt.IQRMultiplier)
			vals := make([]float64, len(c.Cells))
			present := make([]bool, len(c.Cells))
			for i, cell := range c.Cells {
				if cell.Kind == table.CellNumber {
					vals[i], present[i] = cell.Num, true
				}
			}
			numVals = append(numVals, vals)
			numPresent = append(numPresent, present)
			numNames = append(numNames, c.Name)
		case table.Categorical:
			cs.TopValues = topValues(c.Texts(), opt.TopValues)
		}
		rep.Cols = append(rep.Cols, cs)
		rep.Warnings = append(rep.Warnings, columnNotes(cs)...)
	}

	if opt.Correlations && len(numNames) >= 2 && rep.Rows > 1 {
		rep.Corr = &CorrMatrix{Columns: numNames, Values: stats.CorrelationMatrix(numVals, numPresent)}
	}

	if opt.SampleRows > 0 {
		head := t.Head(opt.SampleRows)
		for i := 0; i < head.Rows(); i++ {
			row := head.Row(i)
			rec := make([]string, len(row))
			for j, cell := range row {
				if cell.IsMissing() {
					rec[j] = "NaN"
				} else {
					rec[j] = cell.String()
				}
			}
			rep.Samples = append(rep.Samples, rec)
		}
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "Table has no data rows")
	}
	return rep
}

func summarizeNumeric(cs *ColumnSummary, vals []float64, k float64) {
	if len(vals) == 0 {
		nan := math.NaN()
		cs.Min, cs.Max, cs.Mean, cs.Std = nan, nan, nan, nan
		cs.Median, cs.Q1, cs.Q3, cs.Lower, cs.Upper = nan, nan, nan, nan, nan
		return
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	cs.Min, cs.Max = sorted[0], sorted[len(sorted)-1]
	cs.Mean, cs.Std = stats.MeanStd(vals)
	cs.Median = stats.QuantileSorted(sorted, 0.5)
	cs.Q1 = stats.QuantileSorted(sorted, 0.25)
	cs.Q3 = stats.QuantileSorted(sorted, 0.75)
	cs.Lower, cs.Upper = stats.IQRBounds(vals, k)
	for _, v := range vals {
		if v < cs.Lower || v > cs.Upper {
			cs.OutliersCount++
		}
	}
}

// topValues returns the n most frequent values, ties broken lexically.
func topValues(vals []string, n int) []CategoryCount {
	counts := map[string]int{}
	for _, v := range vals {
		counts[v]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// columnNotes flags what the cleaning pipeline will do to a column.
func columnNotes(cs ColumnSummary) []string {
	var notes []string
	total := cs.NonNull + cs.Missing
	switch {
	case total > 0 && cs.NonNull == 0:
		notes = append(notes, fmt.Sprintf("Column %q is entirely missing", cs.Name))
	case total > 0 && cs.Missing*2 > total:
		notes = append(notes, fmt.Sprintf("Column %q is more than half missing", cs.Name))
	}
	if cs.Unique == 1 {
		notes = append(notes, fmt.Sprintf("Column %q has a single distinct value and will be dropped", cs.Name))
	}
	if cs.OutliersCount > 0 {
		notes = append(notes, fmt.Sprintf("Column %q has %d values outside [%s, %s]", cs.Name, cs.OutliersCount, table.FormatBound(cs.Lower), table.FormatBound(cs.Upper)))
	}
	return notes
}

// TopPairs returns up to n column pairs ordered by |r|, skipping undefined ones.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Markdown renders the report in bracketed sections. Sample rows are emitted
// as a Markdown table.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\nColumns: %d\n\n", r.Rows, len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		writeColumn(&b, c)
	}

	if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = safeName(c.Name)
		}
		rows := make([][]string, len(r.Samples))
		for k, sample := range r.Samples {
			row := make([]string, len(r.Cols))
			for i := range row {
				if i < len(sample) {
					row[i] = safeVal(truncate(sample[i], 80))
				}
			}
			rows[k] = row
		}
		md := markdown.NewMarkdown(&b)
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		if err := md.Build(); err != nil {
			fmt.Fprintf(&b, "(sample rows unavailable: %v)\n", err)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func writeColumn(b *strings.Builder, c ColumnSummary) {
	missPct := 0.0
	if total := c.NonNull + c.Missing; total > 0 {
		missPct = float64(c.Missing) * 100.0 / float64(total)
	}
	name := safeName(c.Name)
	if c.Unit != "" {
		name += " [" + c.Unit + "]"
	}
	fmt.Fprintf(b, "- %s: %s (non-null %d, missing %.1f%%, unique %d)", name, c.Kind, c.NonNull, missPct, c.Unique)
	switch c.Kind {
	case table.Numeric:
		if c.NonNull > 0 {
			fmt.Fprintf(b, ": min %.4g, median %.4g, max %.4g, mean %.4g, std %.4g; IQR outliers: %d",
				c.Min, c.Median, c.Max, c.Mean, c.Std, c.OutliersCount)
		}
	case table.Categorical:
		if len(c.TopValues) > 0 {
			top := make([]string, len(c.TopValues))
			for i, kv := range c.TopValues {
				top[i] = fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count)
			}
			b.WriteString(": top " + strings.Join(top, ", "))
		}
	}
	b.WriteByte('\n')
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
}

// splitUnits separates a trailing "(unit)" or "[unit]" from a column name.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
