package fu

/*
Struct is an ordered set of named float values, used as a metrics record
*/
type Struct struct {
	Names  []string
	Values []float64
}

/*
MakeStruct creates struct from names and values, lengths must be equal
*/
func MakeStruct(names []string, values ...float64) Struct {
	if len(names) != len(values) {
		panic("names and values must have the same length")
	}
	return Struct{Names: names, Values: values}
}

func (s Struct) Pos(name string) int {
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	return -1
}

/*
Float returns the named value or NaN if the struct does not have it
*/
func (s Struct) Float(name string) float64 {
	if i := s.Pos(name); i >= 0 {
		return s.Values[i]
	}
	return nan
}

func (s Struct) Empty() bool {
	return len(s.Names) == 0
}
