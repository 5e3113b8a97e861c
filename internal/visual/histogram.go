package visual

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/tidyframe-cli/internal/table"
)

const histBins = 10

var barColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// numericColumns returns the plain numeric columns of t; indicator columns
// are left out.
func numericColumns(t *table.Table) []*table.Column {
	var out []*table.Column
	if t == nil {
		return out
	}
	for _, c := range t.Columns {
		if c.Indicator || c.Kind() != table.Numeric {
			continue
		}
		out = append(out, c)
	}
	return out
}

// gridShape lays n panels out on a near-square grid.
func gridShape(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return rows, cols
}

// bins splits the values into n equal-width bins over their range. A
// degenerate range is widened by 0.5 on each side.
func bins(values []float64, n int) ([]plotter.HistogramBin, float64) {
	if len(values) == 0 {
		return nil, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	out := make([]plotter.HistogramBin, n)
	for i := range out {
		out[i].Min = lo + float64(i)*width
		out[i].Max = lo + float64(i+1)*width
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		out[i].Weight++
	}
	return out, width
}

func histogramPlot(c *table.Column) *plot.Plot {
	p := plot.New()
	p.Title.Text = c.Name
	p.Y.Min = 0
	b, w := bins(c.Numbers(), histBins)
	if len(b) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Max = 1
		return p
	}
	h := &plotter.Histogram{
		Bins:      b,
		Width:     w,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h, plotter.NewGrid())
	return p
}

// HistogramGrid writes one histogram per numeric column of t to path as a
// 12x8 inch PNG. A table without numeric columns yields a titled placeholder.
func HistogramGrid(t *table.Table, title, path string) error {
	img, area := newFigure(12*vg.Inch, 8*vg.Inch, title)
	cols := numericColumns(t)
	if len(cols) == 0 {
		placeholder(area, "No numeric columns")
		return savePNG(img, path)
	}

	nr, nc := gridShape(len(cols))
	plots := make([][]*plot.Plot, nr)
	for r := range plots {
		plots[r] = make([]*plot.Plot, nc)
	}
	for i, c := range cols {
		plots[i/nc][i%nc] = histogramPlot(c)
	}
	tiles := draw.Tiles{
		Rows: nr, Cols: nc,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(8),
		PadX: vg.Points(12), PadY: vg.Points(12),
	}
	canvases := plot.Align(plots, tiles, area)
	for r := range plots {
		for c, p := range plots[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}
	return savePNG(img, path)
}
