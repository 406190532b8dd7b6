package nn

import (
	"go-ml.dev/pkg/neo/fu"
	"gonum.org/v1/gonum/mat"
	"math"
)

/*
BinaryCrossEntropy is the loss of a sigmoid output, probabilities are clipped to [eps,1-eps]
*/
type BinaryCrossEntropy struct {
	Epsilon float64
}

func (l BinaryCrossEntropy) eps() float64 {
	return fu.Fnzd(l.Epsilon, 1e-7)
}

/*
Loss of a single prediction
*/
func (l BinaryCrossEntropy) Loss(p, y float64) float64 {
	e := l.eps()
	p = fu.Clamp(p, e, 1-e)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

/*
Mean loss of a batch of predictions
*/
func (l BinaryCrossEntropy) Mean(p *mat.Dense, y []float64) float64 {
	s := 0.
	for i, v := range y {
		s += l.Loss(p.At(i, 0), v)
	}
	return s / float64(len(y))
}

/*
gradient of the mean loss by predictions
*/
func (l BinaryCrossEntropy) gradient(p *mat.Dense, y []float64) *mat.Dense {
	e := l.eps()
	n := float64(len(y))
	g := mat.NewDense(len(y), 1, nil)
	for i, v := range y {
		q := fu.Clamp(p.At(i, 0), e, 1-e)
		g.Set(i, 0, (q-v)/(q*(1-q))/n)
	}
	return g
}
