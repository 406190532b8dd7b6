package nn

import (
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"math"
	"math/rand"
)

/*
Layer is a building block of a sequential network
*/
type Layer interface {
	// build allocates parameters for the inputs count and returns outputs count
	build(inputs int, rng *rand.Rand) (int, error)
	forward(x *mat.Dense, training bool) *mat.Dense
	backward(grad *mat.Dense) *mat.Dense
	parameters() []*mat.Dense
	gradients() []*mat.Dense
	state() LayerState
}

/*
DenseLayer is a fully connected layer, y = f(x·W + b)
*/
type DenseLayer struct {
	units      int
	activation Activation
	weights    *mat.Dense // inputs x units
	bias       *mat.Dense // 1 x units
	gradW      *mat.Dense
	gradB      *mat.Dense
	input      *mat.Dense
	z, a       *mat.Dense
}

func Dense(units int, activation Activation) *DenseLayer {
	return &DenseLayer{units: units, activation: activation}
}

/*
build initializes weights Glorot-uniform and bias with zeros
*/
func (d *DenseLayer) build(inputs int, rng *rand.Rand) (int, error) {
	if inputs <= 0 || d.units <= 0 {
		return 0, zorros.Errorf("dense layer %dx%d is empty", inputs, d.units)
	}
	if d.activation == nil {
		return 0, zorros.Errorf("dense layer requires activation")
	}
	limit := math.Sqrt(6 / float64(inputs+d.units))
	w := make([]float64, inputs*d.units)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	d.weights = mat.NewDense(inputs, d.units, w)
	d.bias = mat.NewDense(1, d.units, nil)
	d.gradW = mat.NewDense(inputs, d.units, nil)
	d.gradB = mat.NewDense(1, d.units, nil)
	return d.units, nil
}

func (d *DenseLayer) forward(x *mat.Dense, training bool) *mat.Dense {
	n, _ := x.Dims()
	z := mat.NewDense(n, d.units, nil)
	z.Mul(x, d.weights)
	b := d.bias.RawRowView(0)
	for i := 0; i < n; i++ {
		floats.Add(z.RawRowView(i), b)
	}
	a := mat.NewDense(n, d.units, nil)
	d.activation.forward(z, a)
	if training {
		d.input, d.z, d.a = x, z, a
	}
	return a
}

func (d *DenseLayer) backward(grad *mat.Dense) *mat.Dense {
	n, inputs := d.input.Dims()
	gz := mat.NewDense(n, d.units, nil)
	d.activation.backward(d.z, d.a, grad, gz)
	d.gradW.Mul(d.input.T(), gz)
	d.gradB.Zero()
	gb := d.gradB.RawRowView(0)
	for i := 0; i < n; i++ {
		floats.Add(gb, gz.RawRowView(i))
	}
	gx := mat.NewDense(n, inputs, nil)
	gx.Mul(gz, d.weights.T())
	return gx
}

func (d *DenseLayer) parameters() []*mat.Dense { return []*mat.Dense{d.weights, d.bias} }
func (d *DenseLayer) gradients() []*mat.Dense  { return []*mat.Dense{d.gradW, d.gradB} }

func (d *DenseLayer) state() LayerState {
	inputs, _ := d.weights.Dims()
	return LayerState{
		Kind:       "dense",
		Inputs:     inputs,
		Units:      d.units,
		Activation: d.activation.name(),
		Weights:    append([]float64(nil), d.weights.RawMatrix().Data...),
		Bias:       append([]float64(nil), d.bias.RawMatrix().Data...),
	}
}

/*
DropoutLayer zeroes inputs with the given rate while training and scales the rest by 1/(1-rate)
*/
type DropoutLayer struct {
	rate float64
	rng  *rand.Rand
	mask *mat.Dense
}

func Dropout(rate float64) *DropoutLayer {
	return &DropoutLayer{rate: rate}
}

func (d *DropoutLayer) build(inputs int, rng *rand.Rand) (int, error) {
	if d.rate < 0 || d.rate >= 1 {
		return 0, zorros.Errorf("dropout rate must be in [0,1), got %v", d.rate)
	}
	d.rng = rng
	return inputs, nil
}

func (d *DropoutLayer) forward(x *mat.Dense, training bool) *mat.Dense {
	if !training || d.rate == 0 {
		d.mask = nil
		return x
	}
	n, c := x.Dims()
	scale := 1 / (1 - d.rate)
	d.mask = mat.NewDense(n, c, nil)
	for i := 0; i < n; i++ {
		row := d.mask.RawRowView(i)
		for j := range row {
			if d.rng.Float64() >= d.rate {
				row[j] = scale
			}
		}
	}
	y := mat.NewDense(n, c, nil)
	y.MulElem(x, d.mask)
	return y
}

func (d *DropoutLayer) backward(grad *mat.Dense) *mat.Dense {
	if d.mask == nil {
		return grad
	}
	n, c := grad.Dims()
	g := mat.NewDense(n, c, nil)
	g.MulElem(grad, d.mask)
	return g
}

func (d *DropoutLayer) parameters() []*mat.Dense { return nil }
func (d *DropoutLayer) gradients() []*mat.Dense  { return nil }

func (d *DropoutLayer) state() LayerState {
	return LayerState{Kind: "dropout", Rate: d.rate}
}
