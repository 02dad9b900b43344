package cmag

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"

	// Liberation fonts register automatically on import
	_ "gonum.org/v1/plot/font/liberation"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// StepTicks is a tick marker with fixed step intervals.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

func setPlotFonts(p *plot.Plot) {
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)
}

// FitPlotImage renders the empirical cumulative-area curve together with
// the fitted model curve and returns the plot as an image.Image.
func FitPlotImage(curve *CumCurve, form Form, res *FitResult, title string, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	setPlotFonts(p)

	p.Title.Text = title
	p.X.Label.Text = "pRF eccentricity (degrees)"
	p.Y.Label.Text = "cumulative surface area (sq mm)"

	eccSpan := curve.Eccen[len(curve.Eccen)-1]
	p.X.Tick.Marker = StepTicks{Step: eccSpan / 10, Format: "%.1f"}
	p.Y.Tick.Marker = StepTicks{Step: curve.Total() / 8, Format: "%.0f"}
	p.Add(plotter.NewGrid())

	// The measured curve
	n := len(curve.Eccen)
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = curve.Eccen[i]
		pts[i].Y = curve.CumArea[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255} // blue
	p.Add(line)
	p.Legend.Add("measured", line)

	// The model curve over the same eccentricities
	pred := form.Cum(curve.Eccen, res.TotalArea, res.Params)
	mpts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		mpts[i].X = curve.Eccen[i]
		mpts[i].Y = pred[i]
	}
	mline, err := plotter.NewLine(mpts)
	if err != nil {
		return nil, err
	}
	mline.Dashes = []vg.Length{
		vg.Points(6), // dash length
		vg.Points(4), // gap length
	}
	mline.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255} // red
	p.Add(mline)
	p.Legend.Add(form.Name, mline)

	// Render into an in-memory image
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := vgdraw.New(c)
	p.Draw(dc)

	return c.Image(), nil
}

// SaveFitPlot renders a fit-quality plot and writes it to a PNG file.
func SaveFitPlot(filename string, curve *CumCurve, form Form, res *FitResult, title string) (err error) {
	img, err := FitPlotImage(curve, form, res, title, 900, 600)
	if err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// SaveParamHist writes a histogram of one fitted parameter across cells,
// with the sample mean marked as a dashed vertical line.
func SaveParamHist(filename, title string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("no values to plot for %s", title)
	}
	p := plot.New()
	setPlotFonts(p)

	mean := stat.Mean(values, nil)
	sd := math.Sqrt(stat.Variance(values, nil))
	p.Title.Text = fmt.Sprintf("%s (mean %.3f, sd %.3f, n=%d)", title, mean, sd, len(values))
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(values), 16)
	if err != nil {
		return err
	}
	p.Add(hist)

	_, _, _, ymax := hist.DataRange()
	vpts := plotter.XYs{
		{X: mean, Y: 0},
		{X: mean, Y: ymax},
	}
	vline, err := plotter.NewLine(vpts)
	if err != nil {
		return err
	}
	vline.Dashes = []vg.Length{
		vg.Points(6),
		vg.Points(4),
	}
	vline.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255} // red
	p.Add(vline)

	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}
