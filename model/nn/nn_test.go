package nn

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/neo/tables"
	"gonum.org/v1/gonum/mat"
	"gotest.tools/assert"
)

func separable(n int, seed int64) *tables.Table {
	rng := rand.New(rand.NewSource(seed))
	a, b := make([]float64, n), make([]float64, n)
	y := make([]bool, n)
	for i := range a {
		a[i] = rng.NormFloat64()*3 + 10
		b[i] = rng.NormFloat64()*50 + 100
		y[i] = (a[i]-10)/3+(b[i]-100)/50 > 0
	}
	return tables.MakeTable([]string{"a", "b", "hazardous"}, tables.Col(a), tables.Col(b), tables.Col(y))
}

func dataset(t *testing.T) model.Dataset {
	src := separable(400, 1)
	x, err := src.Matrix("a", "b")
	assert.NilError(t, err)
	sc := &prep.StandardScaler{}
	assert.NilError(t, sc.Fit(x))
	return model.Dataset{
		Source:     src,
		Validation: separable(100, 2),
		Label:      "hazardous",
		Features:   []string{"a", "b"},
		Scaler:     sc,
	}
}

func Test_Topology(t *testing.T) {
	net, err := Default.Build(model.Dataset{Features: []string{"a", "b", "c", "d", "e"}})
	assert.NilError(t, err)
	s := net.Summary()
	assert.DeepEqual(t, s.Col("kind").Unique(), []string{"dense(relu)", "dense(sigmoid)", "dropout(0.2)"})
	kinds := []string{}
	for i := 0; i < s.Len(); i++ {
		kinds = append(kinds, s.Col("kind").Text(i))
	}
	assert.DeepEqual(t, kinds, []string{"dense(relu)", "dense(relu)", "dropout(0.2)", "dense(relu)", "dense(sigmoid)"})
	assert.DeepEqual(t, s.Col("output").Floats(), []float64{64, 32, 32, 16, 1})
	assert.DeepEqual(t, s.Col("params").Floats(), []float64{5*64 + 64, 64*32 + 32, 0, 32*16 + 16, 16 + 1})

	d := net.layers[0].(*DenseLayer)
	limit := math.Sqrt(6. / (5 + 64))
	for _, w := range d.weights.RawMatrix().Data {
		assert.Assert(t, math.Abs(w) <= limit)
	}
	for _, b := range d.bias.RawMatrix().Data {
		assert.Equal(t, b, 0.)
	}

	_, err = Model{Hidden: []int{4}, Dropout: 1}.Build(model.Dataset{Features: []string{"a"}})
	assert.Assert(t, err != nil)
	_, err = Default.Build(model.Dataset{})
	assert.Assert(t, err != nil)
}

func Test_Gradient(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net, err := newNetwork([]string{"a", "b", "c"}, "", nil,
		[]Layer{Dense(4, Sigmoid()), Dense(1, Sigmoid())}, rng)
	assert.NilError(t, err)
	x := mat.NewDense(5, 3, nil)
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}
	y := []float64{0, 1, 1, 0, 1}
	loss := func() float64 { return net.loss.Mean(net.forward(x, false), y) }

	p := net.forward(x, true)
	net.backward(net.loss.gradient(p, y))
	const h = 1e-6
	for k, w := range net.parameters() {
		g := net.gradients()[k]
		data := w.RawMatrix().Data
		for i := range data {
			v := data[i]
			data[i] = v + h
			l1 := loss()
			data[i] = v - h
			l2 := loss()
			data[i] = v
			numeric := (l1 - l2) / (2 * h)
			analytic := g.RawMatrix().Data[i]
			assert.Assert(t, math.Abs(numeric-analytic) < 1e-6, "param %d[%d]: %v != %v", k, i, numeric, analytic)
		}
	}
}

func Test_Loss(t *testing.T) {
	l := BinaryCrossEntropy{}
	assert.Assert(t, math.Abs(l.Loss(0.5, 1)-math.Ln2) < 1e-12)
	assert.Assert(t, math.Abs(l.Loss(0, 1)+math.Log(1e-7)) < 1e-9)
	assert.Assert(t, !math.IsInf(l.Loss(1, 0), 0))
}

func Test_Dropout(t *testing.T) {
	d := Dropout(0.5)
	_, err := d.build(4, rand.New(rand.NewSource(0)))
	assert.NilError(t, err)
	x := mat.NewDense(50, 4, nil)
	for i := 0; i < 50; i++ {
		for j := 0; j < 4; j++ {
			x.Set(i, j, 1)
		}
	}
	assert.Equal(t, d.forward(x, false), x)
	y := d.forward(x, true)
	zeros := 0
	for _, v := range y.RawMatrix().Data {
		assert.Assert(t, v == 0 || v == 2)
		if v == 0 {
			zeros++
		}
	}
	assert.Assert(t, zeros > 50 && zeros < 150)
}

func Test_Train(t *testing.T) {
	ds := dataset(t)
	file := filepath.Join(t.TempDir(), "neo.json.xz")
	m := Model{Hidden: []int{16, 8}, Dropout: 0.1, DropoutAfter: 1, BatchSize: 16, LearningRate: 0.01, Seed: 42}
	report, err := m.Feed(ds).Train(model.Training{
		Iterations: 30,
		ModelFile:  file,
	})
	assert.NilError(t, err)
	assert.Equal(t, report.History.Len(), 30)
	assert.DeepEqual(t, report.History.Names(), []string{
		"iteration", "loss", "accuracy", "precision", "recall", "specificity", "f1",
		"val_loss", "val_accuracy", "val_precision", "val_recall", "val_specificity", "val_f1"})
	loss := report.History.Col("loss")
	assert.Assert(t, loss.Float(29) < loss.Float(0))
	assert.Assert(t, report.Test.Float("accuracy") > 0.9, "validation accuracy %v", report.Test.Float("accuracy"))

	net := LuckyLoad(file)
	assert.DeepEqual(t, net.Features(), []string{"a", "b"})
	assert.Equal(t, net.Predicted(), model.PredictedCol)
	c, q, err := model.Evaluate(net, ds.Validation, "hazardous", model.Classification{})
	assert.NilError(t, err)
	assert.Equal(t, c.Total(), 100)
	assert.Assert(t, c.Accuracy() > 0.9)
	assert.Equal(t, q.Width(), 4)

	again, err := m.Feed(ds).Train(model.Training{Iterations: 30})
	assert.NilError(t, err)
	assert.DeepEqual(t, again.History.Col("val_loss").Floats(), report.History.Col("val_loss").Floats())
}

func Test_Restore(t *testing.T) {
	ds := dataset(t)
	net, err := Model{Hidden: []int{3}, Seed: 1}.Build(ds)
	assert.NilError(t, err)
	s := net.State()
	r, err := Restore(s)
	assert.NilError(t, err)
	p1, err := net.Predict(ds.Validation)
	assert.NilError(t, err)
	p2, err := r.Predict(ds.Validation)
	assert.NilError(t, err)
	assert.DeepEqual(t, p1.Col(model.PredictedCol).Floats(), p2.Col(model.PredictedCol).Floats())

	s.Layers[0].Weights = s.Layers[0].Weights[1:]
	_, err = Restore(s)
	assert.ErrorContains(t, err, "malformed")
	_, err = r.Predict(ds.Validation.Except("b"))
	assert.Assert(t, err != nil)
	_, err = Load(filepath.Join(t.TempDir(), "missing.json.xz"))
	assert.Assert(t, err != nil)

	s = net.State()
	s.Scaler = &prep.StandardScaler{Mean: []float64{0, 0}, Scale: []float64{1}}
	_, err = Restore(s)
	assert.ErrorContains(t, err, "scaler")
}
