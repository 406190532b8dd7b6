package prep

import (
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
)

/*
LabelEncoder maps distinct values of a categorical column to integers 0..n-1
in the order of tables.Column.Unique
*/
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

func (e *LabelEncoder) Fit(c *tables.Column) error {
	e.Classes = c.Unique()
	if len(e.Classes) == 0 {
		return zorros.Errorf("nothing to encode, column has no values")
	}
	return nil
}

/*
Transform returns a Float column of class positions
*/
func (e *LabelEncoder) Transform(c *tables.Column) (*tables.Column, error) {
	pos := make(map[string]int, len(e.Classes))
	for i, s := range e.Classes {
		pos[s] = i
	}
	r := make([]float64, c.Len())
	for i := range r {
		if c.NA(i) {
			return nil, zorros.Errorf("missing value at row %d", i)
		}
		p, ok := pos[c.Text(i)]
		if !ok {
			return nil, zorros.Errorf("unseen label %q at row %d", c.Text(i), i)
		}
		r[i] = float64(p)
	}
	return tables.Floats(r), nil
}

func (e *LabelEncoder) FitTransform(c *tables.Column) (*tables.Column, error) {
	if err := e.Fit(c); err != nil {
		return nil, err
	}
	return e.Transform(c)
}

/*
Inverse returns class value of the encoded label
*/
func (e *LabelEncoder) Inverse(label int) (string, error) {
	if label < 0 || label >= len(e.Classes) {
		return "", zorros.Errorf("label %d is out of range [0,%d)", label, len(e.Classes))
	}
	return e.Classes[label], nil
}
