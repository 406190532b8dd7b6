package nn

import (
	"gonum.org/v1/gonum/mat"
	"math"
)

/*
Adam optimizer
*/
type Adam struct {
	LR      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64
	m, v    [][]float64
	t       int
}

/*
DefaultAdam has the conventional Adam parameters
*/
func DefaultAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

func (a *Adam) step(params, grads []*mat.Dense) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			n := len(p.RawMatrix().Data)
			a.m[i] = make([]float64, n)
			a.v[i] = make([]float64, n)
		}
	}
	a.t++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, p := range params {
		pd := p.RawMatrix().Data
		gd := grads[i].RawMatrix().Data
		m, v := a.m[i], a.v[i]
		for j, g := range gd {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			pd[j] -= a.LR * (m[j] / bc1) / (math.Sqrt(v[j]/bc2) + a.Epsilon)
		}
	}
}
