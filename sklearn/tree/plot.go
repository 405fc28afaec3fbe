package tree

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// PlotPruningPath draws total leaf impurity against effective alpha and
// saves it to filename. The format follows the extension (.png, .svg, .pdf).
func PlotPruningPath(path PruningPath, filename string) error {
	if len(path.CCPAlphas) == 0 || len(path.CCPAlphas) != len(path.Impurities) {
		return scigoErrors.NewValueError("PlotPruningPath", "pruning path is empty or inconsistent")
	}

	p := plot.New()
	p.Title.Text = "Total impurity vs effective alpha"
	p.X.Label.Text = "effective alpha"
	p.Y.Label.Text = "total impurity of leaves"

	pts := make(plotter.XYs, len(path.CCPAlphas))
	for i := range pts {
		pts[i].X = path.CCPAlphas[i]
		pts[i].Y = path.Impurities[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return scigoErrors.Wrap(err, "build pruning path line")
	}
	line.StepStyle = plotter.PostStep
	marks, err := plotter.NewScatter(pts)
	if err != nil {
		return scigoErrors.Wrap(err, "build pruning path markers")
	}
	p.Add(line, marks, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return scigoErrors.Wrapf(err, "save %s", filename)
	}
	return nil
}
