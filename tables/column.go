package tables

import (
	"fmt"
	"go-ml.dev/pkg/zorros"
	"math"
	"sort"
	"strconv"
)

/*
Kind is a type of column values
*/
type Kind int

const (
	Float Kind = iota
	Bool
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float64"
	case Bool:
		return "bool"
	case String:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

/*
Column is a typed column of a table.
Float and Bool columns keep their values as float64 (Bool as 0/1), String columns as strings.
Missing values are tracked by the na mask.
*/
type Column struct {
	kind Kind
	nums []float64
	strs []string
	na   []bool
}

/*
Col creates a column from a slice of int, float64, bool or string values
*/
func Col(a interface{}) *Column {
	switch v := a.(type) {
	case []float64:
		return Floats(v)
	case []int:
		r := make([]float64, len(v))
		for i, x := range v {
			r[i] = float64(x)
		}
		return &Column{kind: Float, nums: r}
	case []bool:
		return Bools(v)
	case []string:
		return Strings(v)
	case *Column:
		return v
	}
	panic(zorros.Panic(zorros.Errorf("unsupported column type %T", a)))
}

/*
Floats creates a float column, NaN values are treated as missing
*/
func Floats(v []float64) *Column {
	c := &Column{kind: Float, nums: append([]float64(nil), v...)}
	for i, x := range v {
		if math.IsNaN(x) {
			c.setNA(i)
		}
	}
	return c
}

func Bools(v []bool) *Column {
	c := &Column{kind: Bool, nums: make([]float64, len(v))}
	for i, x := range v {
		if x {
			c.nums[i] = 1
		}
	}
	return c
}

func Strings(v []string) *Column {
	return &Column{kind: String, strs: append([]string(nil), v...)}
}

func (c *Column) setNA(i int) {
	if c.na == nil {
		c.na = make([]bool, c.Len())
	}
	c.na[i] = true
}

func (c *Column) Kind() Kind {
	return c.kind
}

/*
Numeric is true for columns which can be fed into a matrix
*/
func (c *Column) Numeric() bool {
	return c.kind != String
}

func (c *Column) Len() int {
	if c.kind == String {
		return len(c.strs)
	}
	return len(c.nums)
}

func (c *Column) NA(i int) bool {
	return c.na != nil && c.na[i]
}

/*
NAs returns count of missing values
*/
func (c *Column) NAs() int {
	n := 0
	for _, x := range c.na {
		if x {
			n++
		}
	}
	return n
}

/*
Float returns the i-th value as float64, NaN for missing values and string columns
*/
func (c *Column) Float(i int) float64 {
	if c.kind == String || c.NA(i) {
		return math.NaN()
	}
	return c.nums[i]
}

/*
Text returns the i-th value formatted the way it is written to CSV, empty string for missing
*/
func (c *Column) Text(i int) string {
	if c.NA(i) {
		return ""
	}
	switch c.kind {
	case Bool:
		if c.nums[i] != 0 {
			return "True"
		}
		return "False"
	case String:
		return c.strs[i]
	}
	return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
}

/*
Floats returns a copy of values, it's NaN for missing values
*/
func (c *Column) Floats() []float64 {
	r := make([]float64, c.Len())
	for i := range r {
		r[i] = c.Float(i)
	}
	return r
}

/*
Take returns a new column with values at the given positions
*/
func (c *Column) Take(rows []int) *Column {
	r := &Column{kind: c.kind}
	if c.kind == String {
		r.strs = make([]string, len(rows))
		for j, i := range rows {
			r.strs[j] = c.strs[i]
		}
	} else {
		r.nums = make([]float64, len(rows))
		for j, i := range rows {
			r.nums[j] = c.nums[i]
		}
	}
	if c.na != nil {
		for j, i := range rows {
			if c.na[i] {
				r.setNA(j)
			}
		}
	}
	return r
}

func (c *Column) concat(o *Column) *Column {
	n := c.Len()
	r := &Column{kind: c.kind}
	if c.kind == String {
		r.strs = append(append(make([]string, 0, n+o.Len()), c.strs...), o.strs...)
	} else {
		r.nums = append(append(make([]float64, 0, n+o.Len()), c.nums...), o.nums...)
	}
	if c.na != nil || o.na != nil {
		r.na = make([]bool, r.Len())
		copy(r.na, c.na)
		if o.na != nil {
			copy(r.na[n:], o.na)
		}
	}
	return r
}

/*
Unique returns distinct non-missing values as text, ordered numerically for Float,
False before True for Bool and lexically for String columns
*/
func (c *Column) Unique() []string {
	seen := map[string]bool{}
	type kv struct {
		text string
		num  float64
	}
	r := []kv{}
	for i := 0; i < c.Len(); i++ {
		if c.NA(i) {
			continue
		}
		s := c.Text(i)
		if !seen[s] {
			seen[s] = true
			r = append(r, kv{s, c.Float(i)})
		}
	}
	sort.Slice(r, func(i, j int) bool {
		if c.kind == String {
			return r[i].text < r[j].text
		}
		return r[i].num < r[j].num
	})
	q := make([]string, len(r))
	for i, x := range r {
		q[i] = x.text
	}
	return q
}

/*
Count is a value count entry
*/
type Count struct {
	Value string
	N     int
}

/*
Counts returns counts of distinct non-missing values, the most frequent first
*/
func (c *Column) Counts() []Count {
	m := map[string]int{}
	for i := 0; i < c.Len(); i++ {
		if !c.NA(i) {
			m[c.Text(i)]++
		}
	}
	r := make([]Count, 0, len(m))
	for _, v := range c.Unique() {
		r = append(r, Count{v, m[v]})
	}
	sort.SliceStable(r, func(i, j int) bool { return r[i].N > r[j].N })
	return r
}
