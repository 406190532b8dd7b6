package tables

import (
	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/zorros"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/mat"
	"strings"
)

/*
ErrSchema is wrapped by all errors caused by missing, duplicated or mistyped columns
*/
var ErrSchema = xerrors.New("table schema mismatch")

/*
Table is an immutable set of equally sized named columns.
Every row has an index value identifying the source row it was produced from,
it's preserved by Take, Filter and Concat.
*/
type Table struct {
	names []string
	cols  []*Column
	index []int
}

/*
New creates a table from named columns, rows are indexed 0..n-1
*/
func New(names []string, cols []*Column) (*Table, error) {
	if len(names) != len(cols) {
		return nil, zorros.Errorf("%d names for %d columns", len(names), len(cols))
	}
	n := 0
	seen := map[string]bool{}
	for i, c := range cols {
		if seen[names[i]] {
			return nil, xerrors.Errorf("duplicated column %q: %w", names[i], ErrSchema)
		}
		seen[names[i]] = true
		if i == 0 {
			n = c.Len()
		} else if c.Len() != n {
			return nil, zorros.Errorf("column %q has %d rows, expected %d", names[i], c.Len(), n)
		}
	}
	t := &Table{
		names: append([]string(nil), names...),
		cols:  append([]*Column(nil), cols...),
	}
	t.index = fu.Seq(n)
	return t, nil
}

/*
MakeTable is New panicking on error
*/
func MakeTable(names []string, cols ...*Column) *Table {
	t, err := New(names, cols)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return t
}

func (t *Table) derive(cols []*Column, index []int) *Table {
	return &Table{names: t.names, cols: cols, index: index}
}

func (t *Table) Len() int {
	return len(t.index)
}

func (t *Table) Width() int {
	return len(t.names)
}

/*
Shape returns rows and columns count
*/
func (t *Table) Shape() (int, int) {
	return t.Len(), t.Width()
}

func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

/*
Index returns source row identifiers
*/
func (t *Table) Index() []int {
	return append([]int(nil), t.index...)
}

func (t *Table) pos(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

/*
Lookup returns the named column if it exists
*/
func (t *Table) Lookup(name string) (*Column, bool) {
	if i := t.pos(name); i >= 0 {
		return t.cols[i], true
	}
	return nil, false
}

/*
Col returns the named column and panics if there is no such column
*/
func (t *Table) Col(name string) *Column {
	c, ok := t.Lookup(name)
	if !ok {
		panic(zorros.Panic(xerrors.Errorf("column %q not found: %w", name, ErrSchema)))
	}
	return c
}

/*
Except returns a table without the named columns, unknown names are ignored
*/
func (t *Table) Except(names ...string) *Table {
	drop := map[string]bool{}
	for _, n := range names {
		drop[n] = true
	}
	r := &Table{index: t.index}
	for i, n := range t.names {
		if !drop[n] {
			r.names = append(r.names, n)
			r.cols = append(r.cols, t.cols[i])
		}
	}
	return r
}

/*
Drop returns a table without the named columns, all of them must exist
*/
func (t *Table) Drop(names ...string) (*Table, error) {
	var missing []string
	for _, n := range names {
		if t.pos(n) < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, xerrors.Errorf("can't drop %s: %w", strings.Join(missing, ", "), ErrSchema)
	}
	return t.Except(names...), nil
}

/*
With returns a table with the column added or replaced
*/
func (t *Table) With(c *Column, name string) *Table {
	if c.Len() != t.Len() {
		panic(zorros.Panic(zorros.Errorf("column %q has %d rows, expected %d", name, c.Len(), t.Len())))
	}
	r := &Table{
		names: append([]string(nil), t.names...),
		cols:  append([]*Column(nil), t.cols...),
		index: t.index,
	}
	if i := r.pos(name); i >= 0 {
		r.cols[i] = c
	} else {
		r.names = append(r.names, name)
		r.cols = append(r.cols, c)
	}
	return r
}

/*
Take returns rows at the given positions, positions may repeat
*/
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(rows)
	}
	index := make([]int, len(rows))
	for j, i := range rows {
		index[j] = t.index[i]
	}
	return t.derive(cols, index)
}

/*
Filter returns rows for which f(row position) is true
*/
func (t *Table) Filter(f func(int) bool) *Table {
	rows := []int{}
	for i := 0; i < t.Len(); i++ {
		if f(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

/*
Head returns first n rows
*/
func (t *Table) Head(n int) *Table {
	if n > t.Len() {
		n = t.Len()
	}
	return t.Take(fu.Seq(n))
}

/*
Tail returns last n rows
*/
func (t *Table) Tail(n int) *Table {
	if n > t.Len() {
		n = t.Len()
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = t.Len() - n + i
	}
	return t.Take(rows)
}

/*
Concat appends rows of tables having the same columns
*/
func Concat(ts ...*Table) (*Table, error) {
	if len(ts) == 0 {
		return nil, zorros.Errorf("nothing to concatenate")
	}
	r := ts[0]
	for _, q := range ts[1:] {
		if strings.Join(q.names, "\x00") != strings.Join(r.names, "\x00") {
			return nil, xerrors.Errorf("can't concatenate tables with columns [%s] and [%s]: %w",
				strings.Join(r.names, ","), strings.Join(q.names, ","), ErrSchema)
		}
		cols := make([]*Column, len(r.cols))
		for i, c := range r.cols {
			if c.kind != q.cols[i].kind {
				return nil, xerrors.Errorf("column %q is %v and %v: %w", r.names[i], c.kind, q.cols[i].kind, ErrSchema)
			}
			cols[i] = c.concat(q.cols[i])
		}
		index := append(append(make([]int, 0, r.Len()+q.Len()), r.index...), q.index...)
		r = r.derive(cols, index)
	}
	return r, nil
}

/*
Matrix returns the named numeric columns as a rows x len(names) matrix
*/
func (t *Table) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 || t.Len() == 0 {
		return nil, zorros.Errorf("empty matrix %dx%d", t.Len(), len(names))
	}
	m := mat.NewDense(t.Len(), len(names), nil)
	for j, n := range names {
		c, ok := t.Lookup(n)
		if !ok {
			return nil, xerrors.Errorf("column %q not found: %w", n, ErrSchema)
		}
		if !c.Numeric() {
			return nil, xerrors.Errorf("column %q is not numeric: %w", n, ErrSchema)
		}
		for i := 0; i < t.Len(); i++ {
			m.Set(i, j, c.Float(i))
		}
	}
	return m, nil
}
