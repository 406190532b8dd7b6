package nn

import (
	"fmt"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
	"math/rand"
)

/*
Network is a trained sequential network with a single probability output
*/
type Network struct {
	features  []string
	predicted string
	inputs    int
	layers    []Layer
	scaler    *prep.StandardScaler
	loss      BinaryCrossEntropy
}

func newNetwork(features []string, predicted string, scaler *prep.StandardScaler, layers []Layer, rng *rand.Rand) (*Network, error) {
	net := &Network{
		features:  append([]string(nil), features...),
		predicted: predicted,
		inputs:    len(features),
		layers:    layers,
		scaler:    scaler,
	}
	if net.predicted == "" {
		net.predicted = model.PredictedCol
	}
	n := len(features)
	var err error
	for i, l := range layers {
		if n, err = l.build(n, rng); err != nil {
			return nil, zorros.Wrapf(err, "layer %d: %v", i, err.Error())
		}
	}
	if n != 1 {
		return nil, zorros.Errorf("network must have exactly one output, got %d", n)
	}
	return net, nil
}

func (net *Network) Features() []string {
	return append([]string(nil), net.features...)
}

func (net *Network) Predicted() string {
	return net.predicted
}

func (net *Network) forward(x *mat.Dense, training bool) *mat.Dense {
	for _, l := range net.layers {
		x = l.forward(x, training)
	}
	return x
}

func (net *Network) backward(grad *mat.Dense) {
	for i := len(net.layers) - 1; i >= 0; i-- {
		grad = net.layers[i].backward(grad)
	}
}

func (net *Network) parameters() (r []*mat.Dense) {
	for _, l := range net.layers {
		r = append(r, l.parameters()...)
	}
	return
}

func (net *Network) gradients() (r []*mat.Dense) {
	for _, l := range net.layers {
		r = append(r, l.gradients()...)
	}
	return
}

/*
Probabilities returns predicted probabilities of the positive class for raw (unscaled) features
*/
func (net *Network) Probabilities(x *mat.Dense) ([]float64, error) {
	if _, c := x.Dims(); c != net.inputs {
		return nil, zorros.Errorf("network expects %d features, got %d", net.inputs, c)
	}
	var err error
	if net.scaler != nil {
		if x, err = net.scaler.Transform(x); err != nil {
			return nil, err
		}
	}
	return mat.Col(nil, 0, net.forward(x, false)), nil
}

/*
Predict returns the table with the predicted probability column added
*/
func (net *Network) Predict(t *tables.Table) (*tables.Table, error) {
	x, err := t.Matrix(net.features...)
	if err != nil {
		return nil, err
	}
	p, err := net.Probabilities(x)
	if err != nil {
		return nil, err
	}
	return t.With(tables.Floats(p), net.predicted), nil
}

/*
Summary describes layers as a table with layer, kind, output and params columns
*/
func (net *Network) Summary() *tables.Table {
	var names, kinds []string
	var outputs, params []int
	n := net.inputs
	for i, l := range net.layers {
		s := l.state()
		var k string
		if s.Kind == "dense" {
			n = s.Units
			k = fmt.Sprintf("dense(%s)", s.Activation)
		} else {
			k = fmt.Sprintf("dropout(%g)", s.Rate)
		}
		p := 0
		for _, m := range l.parameters() {
			r, c := m.Dims()
			p += r * c
		}
		names = append(names, fmt.Sprintf("%s_%d", s.Kind, i))
		kinds = append(kinds, k)
		outputs = append(outputs, n)
		params = append(params, p)
	}
	return tables.MakeTable(
		[]string{"layer", "kind", "output", "params"},
		tables.Col(names), tables.Col(kinds), tables.Col(outputs), tables.Col(params))
}
