package model

import (
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
)

/*
Evaluate predicts the table and builds confusion matrix against the 0/1 label column.
It returns the table with the prediction column added.
*/
func Evaluate(pm PredictionModel, t *tables.Table, label string, m Classification) (Confusion, *tables.Table, error) {
	c := Confusion{}
	y, ok := t.Lookup(label)
	if !ok {
		return c, nil, zorros.Errorf("table does not have label column %q", label)
	}
	q, err := pm.Predict(t)
	if err != nil {
		return c, nil, err
	}
	p := q.Col(pm.Predicted())
	for i := 0; i < q.Len(); i++ {
		c.Add(m.Predict(p.Float(i)), y.Float(i) > 0.5)
	}
	return c, q, nil
}
