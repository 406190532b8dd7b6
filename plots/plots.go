package plots

import (
	"bufio"
	"fmt"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"image/color"
	"math"
	"os"
	"path/filepath"
)

const (
	ClassBalanceFile      = "class_balance.png"
	FeatureHistogramsFile = "feature_histograms.png"
	CorrelationFile       = "correlation_heatmap.png"
	TrainingCurvesFile    = "training_curves.png"
)

/*
HistogramBins is the bins count of feature histograms
*/
const HistogramBins = 15

var tiles = draw.Tiles{
	PadTop:    vg.Points(5),
	PadBottom: vg.Points(5),
	PadLeft:   vg.Points(5),
	PadRight:  vg.Points(5),
	PadX:      vg.Points(15),
	PadY:      vg.Points(15),
}

func fill(i int) color.Color {
	r, g, b, _ := plotutil.Color(i).RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 128}
}

/*
save renders a grid of plots into a PNG file
*/
func save(path string, width, height vg.Length, plots [][]*plot.Plot) (err error) {
	t := tiles
	t.Rows = len(plots)
	t.Cols = len(plots[0])
	img := vgimg.New(width, height)
	dc := draw.New(img)
	canvases := plot.Align(plots, t, dc)
	for i, row := range plots {
		for j, p := range row {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zorros.Trace(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return zorros.Trace(err)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = zorros.Trace(e)
		}
	}()
	bf := bufio.NewWriter(f)
	if _, err = (vgimg.PngCanvas{Canvas: img}).WriteTo(bf); err != nil {
		return zorros.Wrapf(err, "failed to render %v: %v", path, err.Error())
	}
	if err = bf.Flush(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

/*
ClassBalance draws shares of label values as a bar chart annotated with percentages
*/
func ClassBalance(path, label string, counts []tables.Count) error {
	if len(counts) == 0 {
		return zorros.Errorf("no classes to draw")
	}
	total := 0
	for _, c := range counts {
		total += c.N
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s class balance", label)
	p.Y.Label.Text = "share, %"
	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	xys := make([]plotter.XY, len(counts))
	texts := make([]string, len(counts))
	for i, c := range counts {
		values[i] = 100 * float64(c.N) / float64(total)
		names[i] = c.Value
		xys[i] = plotter.XY{X: float64(i), Y: values[i]}
		texts[i] = fmt.Sprintf("%.1f%% (%d)", values[i], c.N)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(60))
	if err != nil {
		return zorros.Trace(err)
	}
	bars.Color = plotutil.Color(0)
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return zorros.Trace(err)
	}
	p.Add(bars, labels)
	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = 110
	return save(path, 5*vg.Inch, 5*vg.Inch, [][]*plot.Plot{{p}})
}

func present(c *tables.Column, rows []int) plotter.Values {
	v := plotter.Values{}
	for _, i := range rows {
		if x := c.Float(i); !math.IsNaN(x) {
			v = append(v, x)
		}
	}
	return v
}

/*
FeatureHistograms draws density histograms of every feature split by the label values,
one feature per row
*/
func FeatureHistograms(path string, t *tables.Table, label string, features []string) error {
	if len(features) == 0 {
		return zorros.Errorf("no features to draw")
	}
	lc, ok := t.Lookup(label)
	if !ok {
		return zorros.Errorf("table does not have label column %q", label)
	}
	classes := lc.Unique()
	groups := make([][]int, len(classes))
	for i := 0; i < t.Len(); i++ {
		for k, v := range classes {
			if !lc.NA(i) && lc.Text(i) == v {
				groups[k] = append(groups[k], i)
			}
		}
	}
	grid := make([][]*plot.Plot, len(features))
	for r, f := range features {
		c, ok := t.Lookup(f)
		if !ok || !c.Numeric() {
			return zorros.Errorf("feature %q is not a numeric column", f)
		}
		p := plot.New()
		p.Title.Text = f
		p.Y.Label.Text = "density"
		for k, v := range classes {
			vals := present(c, groups[k])
			if len(vals) == 0 {
				continue
			}
			h, err := plotter.NewHist(vals, HistogramBins)
			if err != nil {
				return zorros.Wrapf(err, "histogram of %v: %v", f, err.Error())
			}
			h.Normalize(1)
			h.FillColor = fill(k)
			h.LineStyle.Color = plotutil.Color(k)
			p.Add(h)
			p.Legend.Add(fmt.Sprintf("%s=%s", label, v), h)
		}
		p.Legend.Top = true
		grid[r] = []*plot.Plot{p}
	}
	return save(path, 8*vg.Inch, vg.Length(len(features))*3*vg.Inch, grid)
}

type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (int, int) {
	n := g.m.SymmetricDim()
	return n, n
}

// rows are flipped so that the first column is drawn at the top
func (g corrGrid) Z(c, r int) float64 {
	return g.m.At(g.m.SymmetricDim()-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

/*
CorrelationHeatmap draws the correlation matrix of named columns with annotated coefficients
*/
func CorrelationHeatmap(path string, names []string, corr *mat.SymDense) error {
	n := corr.SymmetricDim()
	if n != len(names) || n == 0 {
		return zorros.Errorf("%d names for %dx%d correlation matrix", len(names), n, n)
	}
	g := corrGrid{corr}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	hm := plotter.NewHeatMap(g, cm.Palette(255))
	hm.Min, hm.Max = -1, 1

	xys := make([]plotter.XY, 0, n*n)
	texts := make([]string, 0, n*n)
	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		xticks[i] = plot.Tick{Value: float64(i), Label: names[i]}
		yticks[i] = plot.Tick{Value: float64(i), Label: names[n-1-i]}
		for j := 0; j < n; j++ {
			xys = append(xys, plotter.XY{X: float64(i) - 0.2, Y: float64(j)})
			texts = append(texts, fmt.Sprintf("%.2f", g.Z(i, j)))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return zorros.Trace(err)
	}

	p := plot.New()
	p.Title.Text = "correlation"
	p.Add(hm, labels)
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	size := vg.Length(math.Max(4, float64(n)*0.9)+2) * vg.Inch
	return save(path, size, size, [][]*plot.Plot{{p}})
}

func curve(history *tables.Table, col string) (plotter.XYs, bool) {
	c, ok := history.Lookup(col)
	if !ok {
		return nil, false
	}
	it, ok := history.Lookup("iteration")
	xys := make(plotter.XYs, history.Len())
	for i := range xys {
		xys[i].X = float64(i + 1)
		if ok {
			xys[i].X = it.Float(i) + 1
		}
		xys[i].Y = c.Float(i)
	}
	return xys, true
}

/*
TrainingCurves draws loss and accuracy per epoch side by side,
validation curves are drawn when the history has val_ columns
*/
func TrainingCurves(path string, history *tables.Table) error {
	if history == nil || history.Len() == 0 {
		return zorros.Errorf("empty training history")
	}
	row := []*plot.Plot{}
	for _, m := range []string{"loss", "accuracy"} {
		train, ok := curve(history, m)
		if !ok {
			return zorros.Errorf("training history does not have %q column", m)
		}
		p := plot.New()
		p.Title.Text = m
		p.X.Label.Text = "epoch"
		args := []interface{}{"train", train}
		if val, ok := curve(history, "val_"+m); ok {
			args = append(args, "validation", val)
		}
		if err := plotutil.AddLinePoints(p, args...); err != nil {
			return zorros.Trace(err)
		}
		p.Legend.Top = true
		row = append(row, p)
	}
	return save(path, 10*vg.Inch, 4*vg.Inch, [][]*plot.Plot{row})
}
