// Package visualization renders evaluation results with gonum/plot.
package visualization

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mathematixy/deslib/pkg/errors"
)

// MethodAccuracy pairs a method name with its test accuracy, preserving
// presentation order.
type MethodAccuracy struct {
	Name     string
	Accuracy float64
}

// AccuracyBarChart writes a bar chart comparing method accuracies to path.
// The image format follows the file extension (png, pdf, svg, ...).
func AccuracyBarChart(title string, results []MethodAccuracy, path string) error {
	if len(results) == 0 {
		return errors.NewValueError("visualization.AccuracyBarChart", "no results to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Accuracy"
	p.Y.Min = 0
	p.Y.Max = 1

	values := make(plotter.Values, len(results))
	names := make([]string, len(results))
	for i, r := range results {
		if r.Accuracy < 0 || r.Accuracy > 1 {
			return errors.NewValueError("visualization.AccuracyBarChart", "accuracy must be in [0, 1]")
		}
		values[i] = r.Accuracy
		names[i] = r.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "visualization: building bar chart")
	}
	bars.LineStyle.Width = 0
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}

	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "visualization: saving chart")
	}
	return nil
}
