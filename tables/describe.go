package tables

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"math"
	"sort"
)

/*
DescribeNames are the columns of the Describe table
*/
var DescribeNames = []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

/*
NumericNames returns names of Float and Bool columns
*/
func (t *Table) NumericNames() []string {
	r := []string{}
	for i, c := range t.cols {
		if c.Numeric() {
			r = append(r, t.names[i])
		}
	}
	return r
}

/*
Describe returns summary statistics of numeric columns, one row per column.
Std is the sample standard deviation, missing values are skipped.
*/
func (t *Table) Describe() *Table {
	names := t.NumericNames()
	stats := make([][]float64, len(DescribeNames)-1)
	for k := range stats {
		stats[k] = make([]float64, len(names))
	}
	for j, n := range names {
		c := t.Col(n)
		x := make([]float64, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if !c.NA(i) {
				x = append(x, c.Float(i))
			}
		}
		stats[0][j] = float64(len(x))
		if len(x) == 0 {
			for k := 1; k < len(stats); k++ {
				stats[k][j] = math.NaN()
			}
			continue
		}
		sort.Float64s(x)
		stats[1][j], stats[2][j] = stat.MeanStdDev(x, nil)
		stats[3][j] = floats.Min(x)
		stats[4][j] = Quantile(x, .25)
		stats[5][j] = Quantile(x, .50)
		stats[6][j] = Quantile(x, .75)
		stats[7][j] = floats.Max(x)
	}
	cols := []*Column{Strings(names)}
	for _, s := range stats {
		cols = append(cols, Floats(s))
	}
	return MakeTable(DescribeNames, cols...)
}

/*
Quantile returns the p-quantile of sorted values interpolating linearly
between the closest ranks at h = (n-1)p
*/
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := float64(len(sorted)-1) * p
	i := int(math.Floor(h))
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-float64(i))*(sorted[i+1]-sorted[i])
}

/*
Corr returns Pearson correlation matrix of the named numeric columns
*/
func (t *Table) Corr(names ...string) (*mat.SymDense, error) {
	m, err := t.Matrix(names...)
	if err != nil {
		return nil, err
	}
	c := mat.NewSymDense(len(names), nil)
	stat.CorrelationMatrix(c, m, nil)
	return c, nil
}
