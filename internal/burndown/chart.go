package burndown

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

// ChartOptions configures burndown chart rendering.
type ChartOptions struct {
	Title  string
	Width  int
	Height int
}

// DefaultChartOptions returns sensible defaults for chart rendering.
func DefaultChartOptions() *ChartOptions {
	return &ChartOptions{
		Title:  "Milestone burndown",
		Width:  1024,
		Height: 512,
	}
}

// Render writes the series as a PNG chart. An empty series still renders a
// valid placeholder chart with a fixed axis range.
func (s *Series) Render(w io.Writer, opts *ChartOptions) error {
	if opts == nil {
		opts = DefaultChartOptions()
	}
	if len(s.Points) == 0 {
		return fmt.Errorf("series has no sample points")
	}

	xs := make([]time.Time, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.Date
		ys[i] = p.Remaining
	}

	c := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Remaining effort",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "remaining",
				XValues: xs,
				YValues: ys,
			},
		},
	}

	// A flat all-zero series gives the renderer a degenerate value range;
	// pin the axis so the placeholder chart still renders.
	if s.IsEmpty() {
		c.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render burndown chart: %w", err)
	}
	return nil
}

// RenderFile renders the series to a PNG file, creating parent directories
// as needed.
func (s *Series) RenderFile(path string, opts *ChartOptions) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := s.Render(f, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
