package model

import (
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"gonum.org/v1/gonum/mat"
)

/*
Dataset is an abstraction of some source of a data to feed hungry models
*/
type Dataset struct {
	Source     *tables.Table        // training rows
	Validation *tables.Table        // optional, evaluated after every iteration
	Label      string               // name of 0/1 column containing label to train
	Features   []string             // names of feature columns to train model or predict
	Scaler     *prep.StandardScaler // optional, fitted on Source, applied to all feature matrices
}

/*
Matrix returns scaled features of the table
*/
func (ds Dataset) Matrix(t *tables.Table) (*mat.Dense, error) {
	x, err := t.Matrix(ds.Features...)
	if err != nil {
		return nil, err
	}
	if ds.Scaler != nil {
		return ds.Scaler.Transform(x)
	}
	return x, nil
}

/*
Matrices returns scaled features and labels of the table
*/
func (ds Dataset) Matrices(t *tables.Table) (*mat.Dense, []float64, error) {
	x, err := ds.Matrix(t)
	if err != nil {
		return nil, nil, err
	}
	c, ok := t.Lookup(ds.Label)
	if !ok {
		return nil, nil, zorros.Errorf("dataset does not have label column %q", ds.Label)
	}
	y := c.Floats()
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, nil, zorros.Errorf("label %v at row %d is not 0/1", v, i)
		}
	}
	return x, y, nil
}
