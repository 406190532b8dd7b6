package nn

import (
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
	"math"
)

/*
Activation is an element-wise function applied to dense layer output
*/
type Activation interface {
	forward(z, out *mat.Dense)
	// backward computes out = grad * f'(z), a is f(z)
	backward(z, a, grad, out *mat.Dense)
	name() string
}

type relu struct{}

func ReLU() Activation { return relu{} }

func (relu) forward(z, out *mat.Dense) {
	out.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, z)
}

func (relu) backward(z, _, grad, out *mat.Dense) {
	out.Apply(func(i, j int, g float64) float64 {
		if z.At(i, j) > 0 {
			return g
		}
		return 0
	}, grad)
}

func (relu) name() string { return "relu" }

type sigmoid struct{}

func Sigmoid() Activation { return sigmoid{} }

func logistic(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

func (sigmoid) forward(z, out *mat.Dense) {
	out.Apply(func(_, _ int, v float64) float64 { return logistic(v) }, z)
}

func (sigmoid) backward(_, a, grad, out *mat.Dense) {
	out.Apply(func(i, j int, g float64) float64 {
		p := a.At(i, j)
		return g * p * (1 - p)
	}, grad)
}

func (sigmoid) name() string { return "sigmoid" }

type linear struct{}

func Linear() Activation { return linear{} }

func (linear) forward(z, out *mat.Dense)           { out.Copy(z) }
func (linear) backward(_, _, grad, out *mat.Dense) { out.Copy(grad) }
func (linear) name() string                        { return "linear" }

func activation(name string) (Activation, error) {
	switch name {
	case "relu":
		return ReLU(), nil
	case "sigmoid":
		return Sigmoid(), nil
	case "linear", "":
		return Linear(), nil
	}
	return nil, zorros.Errorf("unknown activation %q", name)
}
