// Package visual renders the diagnostic images of a cleaning run: histogram
// grids of the numeric columns before and after cleaning and a correlation
// heatmap of the cleaned table.
package visual

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tidyframe-cli/internal/logger"
	"github.com/KaramelBytes/tidyframe-cli/internal/table"
	"github.com/KaramelBytes/tidyframe-cli/internal/utils"
)

// Output file names inside the visuals directory.
const (
	HistBeforeFile = "hist_before.png"
	HistAfterFile  = "hist_after.png"
	HeatmapFile    = "heatmap.png"
)

// Artifacts holds the paths of the images that were written. A field is empty
// when its image failed to render.
type Artifacts struct {
	HistBefore string `json:"hist_before,omitempty"`
	HistAfter  string `json:"hist_after,omitempty"`
	Heatmap    string `json:"heatmap,omitempty"`
}

// RenderError reports a single image that could not be produced.
type RenderError struct {
	Artifact string
	Err      error
}

func (e *RenderError) Error() string { return e.Artifact + ": " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// Render writes the three images into dir. Each image is rendered on its own
// goroutine and a failing image does not stop the others. The returned error
// joins one *RenderError per failed image and is nil when all succeeded.
func Render(ctx context.Context, before, after *table.Table, dir string) (*Artifacts, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return &Artifacts{}, fmt.Errorf("ensure visuals dir: %w", err)
	}
	art := &Artifacts{}
	jobs := []struct {
		name string
		dst  *string
		draw func(path string) error
	}{
		{HistBeforeFile, &art.HistBefore, func(p string) error { return HistogramGrid(before, "Histogram Before", p) }},
		{HistAfterFile, &art.HistAfter, func(p string) error { return HistogramGrid(after, "Histogram After", p) }},
		{HeatmapFile, &art.Heatmap, func(p string) error { return Heatmap(after, "Correlation Heatmap", p) }},
	}

	errs := make([]error, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			if err := renderOne(ctx, filepath.Join(dir, job.name), job.draw); err != nil {
				errs[i] = &RenderError{Artifact: job.name, Err: err}
				return nil
			}
			*job.dst = filepath.Join(dir, job.name)
			return nil
		})
	}
	_ = g.Wait()
	return art, errors.Join(errs...)
}

// renderOne runs draw, turning a panic inside the plotting code into an error.
func renderOne(ctx context.Context, path string, draw func(string) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := draw(path); err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("visual written", "path", path)
	return nil
}
