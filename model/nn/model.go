package nn

import (
	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
	"math/rand"
)

/*
Model is a hungry feed-forward binary classifier.
Hidden ReLU layers are followed by a single sigmoid output,
the dropout layer is inserted after DropoutAfter hidden layers.
*/
type Model struct {
	Hidden       []int
	Dropout      float64 // dropout rate, 0 means no dropout layer
	DropoutAfter int
	BatchSize    int
	LearningRate float64
	Seed         int64
	Predicted    string // prediction column name, model.PredictedCol by default
}

/*
Default is 64/32/16 ReLU with 0.2 dropout before the last hidden layer, Adam 0.001, batch 32
*/
var Default = Model{
	Hidden:       []int{64, 32, 16},
	Dropout:      0.2,
	DropoutAfter: 2,
	BatchSize:    32,
	LearningRate: 0.001,
}

func (m Model) layers() []Layer {
	var r []Layer
	at := fu.Mini(m.DropoutAfter, len(m.Hidden))
	for i, n := range m.Hidden {
		if m.Dropout > 0 && i == at {
			r = append(r, Dropout(m.Dropout))
		}
		r = append(r, Dense(n, ReLU()))
	}
	if m.Dropout > 0 && at == len(m.Hidden) {
		r = append(r, Dropout(m.Dropout))
	}
	return append(r, Dense(1, Sigmoid()))
}

/*
Build creates an untrained network for the dataset features
*/
func (m Model) Build(ds model.Dataset) (*Network, error) {
	return m.build(ds, rand.New(rand.NewSource(m.Seed)))
}

func (m Model) build(ds model.Dataset, rng *rand.Rand) (*Network, error) {
	if len(ds.Features) == 0 {
		return nil, zorros.Errorf("dataset has no features")
	}
	return newNetwork(ds.Features, m.Predicted, ds.Scaler, m.layers(), rng)
}

func (m Model) Feed(ds model.Dataset) model.FatModel {
	return func(workout model.Workout) (*model.Report, error) {
		return m.train(ds, workout)
	}
}

func rows(x *mat.Dense, y []float64, index []int) (*mat.Dense, []float64) {
	_, c := x.Dims()
	bx := mat.NewDense(len(index), c, nil)
	by := make([]float64, len(index))
	for j, i := range index {
		copy(bx.RawRowView(j), x.RawRowView(i))
		by[j] = y[i]
	}
	return bx, by
}

func (net *Network) evaluate(x *mat.Dense, y []float64, u model.MetricsUpdater) {
	p := net.forward(x, false)
	for i, v := range y {
		q := p.At(i, 0)
		u.Update(q, v, net.loss.Loss(q, v))
	}
}

func (m Model) train(ds model.Dataset, w model.Workout) (*model.Report, error) {
	if ds.Source == nil || ds.Source.Len() == 0 {
		return nil, zorros.Errorf("dataset has no training rows")
	}
	x, y, err := ds.Matrices(ds.Source)
	if err != nil {
		return nil, err
	}
	var vx *mat.Dense
	var vy []float64
	if ds.Validation != nil && ds.Validation.Len() > 0 {
		if vx, vy, err = ds.Matrices(ds.Validation); err != nil {
			return nil, err
		}
	}
	rng := rand.New(rand.NewSource(m.Seed))
	net, err := m.build(ds, rng)
	if err != nil {
		return nil, err
	}
	opt := DefaultAdam(fu.Fnzd(m.LearningRate, 0.001))
	bs := fu.Fnzi(m.BatchSize, 32)
	n := len(y)

	for w != nil {
		tm := w.TrainMetrics()
		perm := rng.Perm(n)
		for b := 0; b < n; b += bs {
			bx, by := rows(x, y, perm[b:fu.Mini(b+bs, n)])
			p := net.forward(bx, true)
			for i, v := range by {
				q := p.At(i, 0)
				tm.Update(q, v, net.loss.Loss(q, v))
			}
			net.backward(net.loss.gradient(p, by))
			opt.step(net.parameters(), net.gradients())
		}
		train, done := tm.Complete()
		test := fu.Struct{}
		if vx != nil {
			vm := w.TestMetrics()
			net.evaluate(vx, vy, vm)
			test, _ = vm.Complete()
		}
		report, stop, err := w.Complete(net, train, test, done)
		if err != nil {
			return nil, err
		}
		if stop {
			return report, nil
		}
		w = w.Next()
	}
	return nil, zorros.Errorf("training workout was interrupted")
}
