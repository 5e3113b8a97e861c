package visual

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

const titleHeight = vg.Length(28)

func titleStyle(size vg.Length) draw.TextStyle {
	return draw.TextStyle{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, size),
		XAlign:  text.XCenter,
		YAlign:  text.YTop,
		Handler: plot.DefaultTextHandler,
	}
}

// newFigure returns a white image canvas with title drawn across the top and
// the drawing area left below it.
func newFigure(w, h vg.Length, title string) (*vgimg.Canvas, draw.Canvas) {
	img := vgimg.New(w, h)
	dc := draw.New(img)
	if title == "" {
		return img, dc
	}
	dc.FillText(titleStyle(vg.Points(14)), vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(6)}, title)
	return img, draw.Crop(dc, 0, 0, 0, -titleHeight)
}

// placeholder draws msg centered in area.
func placeholder(area draw.Canvas, msg string) {
	sty := titleStyle(vg.Points(12))
	sty.YAlign = text.YCenter
	area.FillText(sty, area.Center(), msg)
}

// savePNG encodes img as PNG at path.
func savePNG(img *vgimg.Canvas, path string) error {
	return utils.WriteAtomic(path, func(w io.Writer) error {
		if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	})
}
