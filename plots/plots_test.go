package plots

import (
	"os"
	"path/filepath"
	"testing"

	"go-ml.dev/pkg/neo/tables"
	"gotest.tools/assert"
)

func sample() *tables.Table {
	n := 60
	a, b := make([]float64, n), make([]float64, n)
	y := make([]bool, n)
	for i := range a {
		a[i] = float64(i%17) * 0.3
		b[i] = float64((i*7)%23) + 1
		y[i] = i%3 == 0
	}
	return tables.MakeTable([]string{"a", "b", "hazardous"}, tables.Col(a), tables.Col(b), tables.Col(y))
}

func exists(t *testing.T, path string) {
	st, err := os.Stat(path)
	assert.NilError(t, err)
	assert.Assert(t, st.Size() > 0)
}

func Test_ClassBalance(t *testing.T) {
	path := filepath.Join(t.TempDir(), ClassBalanceFile)
	assert.NilError(t, ClassBalance(path, "hazardous", sample().Col("hazardous").Counts()))
	exists(t, path)
	assert.Assert(t, ClassBalance(path, "hazardous", nil) != nil)
}

func Test_FeatureHistograms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figs", FeatureHistogramsFile)
	assert.NilError(t, FeatureHistograms(path, sample(), "hazardous", []string{"a", "b"}))
	exists(t, path)
	assert.ErrorContains(t, FeatureHistograms(path, sample(), "label", []string{"a"}), "label")
	assert.ErrorContains(t, FeatureHistograms(path, sample(), "hazardous", []string{"c"}), "numeric")
}

func Test_CorrelationHeatmap(t *testing.T) {
	q := sample()
	names := q.Names()
	c, err := q.Corr(names...)
	assert.NilError(t, err)
	path := filepath.Join(t.TempDir(), CorrelationFile)
	assert.NilError(t, CorrelationHeatmap(path, names, c))
	exists(t, path)
	assert.Assert(t, CorrelationHeatmap(path, names[:1], c) != nil)
}

func Test_TrainingCurves(t *testing.T) {
	h := tables.MakeTable([]string{"iteration", "loss", "accuracy", "val_loss", "val_accuracy"},
		tables.Col([]int{0, 1, 2}),
		tables.Col([]float64{0.7, 0.5, 0.4}),
		tables.Col([]float64{0.5, 0.7, 0.8}),
		tables.Col([]float64{0.72, 0.55, 0.5}),
		tables.Col([]float64{0.5, 0.65, 0.75}))
	path := filepath.Join(t.TempDir(), TrainingCurvesFile)
	assert.NilError(t, TrainingCurves(path, h))
	exists(t, path)
	assert.NilError(t, TrainingCurves(path, h.Except("val_loss", "val_accuracy")))
	assert.Assert(t, TrainingCurves(path, h.Except("accuracy")) != nil)
	assert.Assert(t, TrainingCurves(path, h.Head(0)) != nil)
}
