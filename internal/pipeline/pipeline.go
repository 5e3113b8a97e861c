// Package pipeline implements the fixed cleaning sequence applied to a table:
// missing-value handling, IQR outlier removal, constant-column pruning,
// one-hot encoding and standardization.
//
// Every stage works on a private copy of its input. The missing-value and
// outlier stages fold over the columns left to right, so a row removed while
// processing one column is gone before the next column is inspected.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/KaramelBytes/tidyframe-cli/internal/stats"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
)

// Options tunes the cleaning stages.
type Options struct {
	// MissingMarker fills categorical gaps under the auto strategy.
	MissingMarker string
	// IQRMultiplier scales the interquartile range for the outlier fences.
	IQRMultiplier float64
	// Logger receives per-column debug records; nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the standard marker and 1.5 IQR fences.
func DefaultOptions() Options {
	return Options{MissingMarker: "Missing", IQRMultiplier: 1.5}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MissingMarker == "" {
		o.MissingMarker = d.MissingMarker
	}
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = d.IQRMultiplier
	}
	return o
}

// Result is the outcome of a full pipeline run.
type Result struct {
	Table      *table.Table
	MissingLog Log
	OutlierLog Log
	// Shapes as rows x columns.
	RowsBefore, ColsBefore int
	RowsAfter, ColsAfter   int
}

// Run applies every stage in order. The input table is never modified.
func Run(t *table.Table, s Strategy, opt Options) (*Result, error) {
	if t == nil {
		return nil, errors.New("pipeline: nil table")
	}
	opt = opt.withDefaults()
	log := opt.logger()
	log.Debug("pipeline start", "rows", t.Rows(), "cols", t.Width(), "strategy", s)

	cleaned, missLog := HandleMissing(t, s, opt)
	cleaned, outLog := HandleOutliers(cleaned, opt)
	cleaned = Finalize(cleaned, opt)

	log.Debug("pipeline done", "rows", cleaned.Rows(), "cols", cleaned.Width())
	return &Result{
		Table:      cleaned,
		MissingLog: missLog,
		OutlierLog: outLog,
		RowsBefore: t.Rows(),
		ColsBefore: t.Width(),
		RowsAfter:  cleaned.Rows(),
		ColsAfter:  cleaned.Width(),
	}, nil
}

// HandleMissing treats every column holding at least one missing cell
// according to s. A strategy outside Strategies leaves such columns untouched
// and unlogged.
func HandleMissing(t *table.Table, s Strategy, opt Options) (*table.Table, Log) {
	opt = opt.withDefaults()
	log := opt.logger()
	out := t.Clone()
	var entries Log
	for _, col := range out.Columns {
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		kind := col.Kind()
		switch s {
		case Auto:
			if kind == table.Categorical {
				col.FillMissing(table.Text(opt.MissingMarker))
				entries.Set(col.Name, fmt.Sprintf("Filled %d with '%s'", missing, opt.MissingMarker))
			} else {
				median := stats.Median(col.Numbers())
				col.FillMissing(table.Number(median))
				entries.Set(col.Name, fmt.Sprintf("Filled %d with median=%s", missing, table.FormatFloat(median)))
			}
		case Custom:
			if kind == table.Categorical {
				mode, _ := stats.Mode(col.Texts())
				col.FillMissing(table.Text(mode))
				entries.Set(col.Name, fmt.Sprintf("Filled %d with %s", missing, mode))
			} else {
				mean := stats.Mean(col.Numbers())
				col.FillMissing(table.Number(mean))
				entries.Set(col.Name, fmt.Sprintf("Filled %d with %s", missing, table.FormatFloat(mean)))
			}
		case Drop:
			keep := make([]bool, len(col.Cells))
			for i, c := range col.Cells {
				keep[i] = !c.IsMissing()
			}
			out.KeepRows(keep)
			entries.Set(col.Name, "Dropped rows with missing in "+col.Name)
		default:
			log.Debug("missing values left in place", "column", col.Name, "strategy", s)
			continue
		}
		log.Debug("missing values handled", "column", col.Name, "kind", kind, "missing", missing, "rows", out.Rows())
	}
	return out, entries
}

// HandleOutliers removes, column by column, every row whose numeric value lies
// outside the IQR fences computed on the rows still present. Missing numeric
// cells never fall inside the fences and are removed as well.
func HandleOutliers(t *table.Table, opt Options) (*table.Table, Log) {
	opt = opt.withDefaults()
	log := opt.logger()
	out := t.Clone()
	var entries Log
	for _, col := range out.Columns {
		if col.Kind() != table.Numeric {
			continue
		}
		lower, upper := stats.IQRBounds(col.Numbers(), opt.IQRMultiplier)
		keep := make([]bool, len(col.Cells))
		for i, c := range col.Cells {
			keep[i] = c.Kind == table.CellNumber && c.Num >= lower && c.Num <= upper
		}
		removed := out.KeepRows(keep)
		if removed > 0 {
			entries.Set(col.Name, fmt.Sprintf("Removed %d outliers [%s, %s]", removed, table.FormatBound(lower), table.FormatBound(upper)))
		}
		log.Debug("outlier fences applied", "column", col.Name, "lower", lower, "upper", upper, "removed", removed)
	}
	return out, entries
}

// Finalize prunes columns with at most one distinct value, one-hot encodes the
// categorical columns and standardizes the numeric ones.
//
// Encoding orders categories lexically and drops the first as the reference,
// so k categories become k-1 indicator columns named column_category. Missing
// categorical cells encode as all zeros. Numeric columns keep their relative
// order ahead of the indicator columns. An indicator whose name is already
// taken gets a .N suffix, the same way repeated input headers are renamed.
func Finalize(t *table.Table, opt Options) *table.Table {
	opt = opt.withDefaults()
	log := opt.logger()
	out := t.Clone()

	var plain, encoded []*table.Column
	for _, col := range out.Columns {
		if col.Distinct() <= 1 {
			log.Debug("constant column dropped", "column", col.Name)
			continue
		}
		if col.Kind() == table.Categorical {
			encoded = append(encoded, oneHot(col)...)
			continue
		}
		plain = append(plain, col)
	}
	out.Columns = append(plain, encoded...)
	for i, name := range table.UniqueNames(out.Names()) {
		if col := out.Columns[i]; col.Name != name {
			log.Debug("indicator renamed", "column", col.Name, "as", name)
			col.Name = name
		}
	}

	for _, col := range out.Columns {
		if col.Indicator || col.Kind() != table.Numeric {
			continue
		}
		standardize(col)
	}
	return out
}

func oneHot(col *table.Column) []*table.Column {
	seen := map[string]struct{}{}
	for _, v := range col.Texts() {
		seen[v] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	if len(cats) == 0 {
		return nil
	}
	out := make([]*table.Column, 0, len(cats)-1)
	for _, cat := range cats[1:] {
		cells := make([]table.Cell, len(col.Cells))
		for i, c := range col.Cells {
			if c.Kind == table.CellText && c.Text == cat {
				cells[i] = table.Number(1)
			} else {
				cells[i] = table.Number(0)
			}
		}
		out = append(out, &table.Column{Name: col.Name + "_" + cat, Cells: cells, Indicator: true})
	}
	return out
}

// standardize rescales to zero mean and unit population variance. A zero
// spread is treated as one; missing cells stay missing.
func standardize(col *table.Column) {
	mean, std := stats.MeanStd(col.Numbers())
	if math.IsNaN(mean) {
		return
	}
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	for i, c := range col.Cells {
		if c.Kind == table.CellNumber {
			col.Cells[i] = table.Number((c.Num - mean) / std)
		}
	}
}
