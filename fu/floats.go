package fu

import "math"

/*
Mean returns the arithmetic mean, 0 for an empty slice
*/
func Mean(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var c float64
	for _, x := range a {
		c += x
	}
	return c / float64(len(a))
}

/*
Ratio returns a/b or 0 when b is zero
*/
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

/*
Indmaxd returns index of the maximal value, the first one on ties
*/
func Indmaxd(a []float64) int {
	j := 0
	for i, x := range a {
		if x > a[j] || math.IsNaN(a[j]) {
			j = i
		}
	}
	return j
}

/*
Clamp limits x to [lo,hi]
*/
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

var nan = math.NaN()
