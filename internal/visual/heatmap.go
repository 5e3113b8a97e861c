package visual

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/tidyframe-cli/internal/stats"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
)

// corrGrid adapts a square correlation matrix to plotter.GridXYZ.
type corrGrid [][]float64

func (g corrGrid) Dims() (c, r int)   { return len(g), len(g) }
func (g corrGrid) Z(c, r int) float64 { return g[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// correlationColumns returns every numeric column of t, indicator columns
// included.
func correlationColumns(t *table.Table) []*table.Column {
	var out []*table.Column
	if t == nil {
		return out
	}
	for _, c := range t.Columns {
		if c.Kind() == table.Numeric {
			out = append(out, c)
		}
	}
	return out
}

// Correlations returns the column names and pairwise Pearson matrix used by
// the heatmap. Undefined coefficients are NaN.
func Correlations(t *table.Table) ([]string, [][]float64) {
	cols := correlationColumns(t)
	names := make([]string, len(cols))
	values := make([][]float64, len(cols))
	present := make([][]bool, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		values[i] = make([]float64, len(c.Cells))
		present[i] = make([]bool, len(c.Cells))
		for k, cell := range c.Cells {
			if cell.Kind == table.CellNumber {
				values[i][k] = cell.Num
				present[i][k] = true
			}
		}
	}
	return names, stats.CorrelationMatrix(values, present)
}

// Heatmap writes the correlation heatmap of t's numeric columns to path as a
// 10x6 inch PNG. Undefined coefficients are drawn as 0.
func Heatmap(t *table.Table, title, path string) error {
	img, area := newFigure(10*vg.Inch, 6*vg.Inch, title)
	names, m := Correlations(t)
	if len(names) == 0 {
		placeholder(area, "No numeric columns to correlate")
		return savePNG(img, path)
	}

	grid := make(corrGrid, len(m))
	labels := plotter.XYLabels{XYs: make(plotter.XYs, 0, len(m)*len(m))}
	for r, row := range m {
		grid[r] = make([]float64, len(row))
		for c, v := range row {
			if math.IsNaN(v) {
				v = 0
			}
			grid[r][c] = v
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.2f", v))
		}
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(grid, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Add(hm)
	if len(names) <= 12 {
		lbl, err := plotter.NewLabels(labels)
		if err != nil {
			return fmt.Errorf("heatmap labels: %w", err)
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].XAlign = text.XCenter
			lbl.TextStyle[i].YAlign = text.YCenter
			lbl.TextStyle[i].Color = color.Black
		}
		p.Add(lbl)
	}
	p.NominalX(names...)
	p.NominalY(names...)
	p.Draw(area)
	return savePNG(img, path)
}
