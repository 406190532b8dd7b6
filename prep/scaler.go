package prep

import (
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

/*
StandardScaler standardizes features to zero mean and unit variance.
The population standard deviation is used, constant features are only centered.
*/
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fitted() bool {
	return len(s.Mean) > 0
}

func (s *StandardScaler) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return zorros.Errorf("can't fit scaler on empty matrix")
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		if floats.HasNaN(col) {
			return zorros.Errorf("feature %d has missing values", j)
		}
		s.Mean[j], s.Scale[j] = stat.PopMeanStdDev(col, nil)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !s.Fitted() {
		return nil, zorros.Errorf("scaler is not fitted")
	}
	r, c := x.Dims()
	if c != len(s.Mean) {
		return nil, zorros.Errorf("scaler fitted on %d features, got %d", len(s.Mean), c)
	}
	q := mat.NewDense(r, c, nil)
	q.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, x)
	return q, nil
}

func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
