package tables

import "strings"

func (t *Table) rowKey(i int, b *strings.Builder) string {
	b.Reset()
	for _, c := range t.cols {
		if c.NA(i) {
			b.WriteString("\x02")
		} else {
			b.WriteString(c.Text(i))
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

/*
Duplicated marks rows equal over all columns to one of the previous rows
*/
func (t *Table) Duplicated() []bool {
	r := make([]bool, t.Len())
	seen := map[string]bool{}
	b := &strings.Builder{}
	for i := range r {
		k := t.rowKey(i, b)
		r[i] = seen[k]
		seen[k] = true
	}
	return r
}

/*
CountDuplicated returns the number of rows DropDuplicates would remove
*/
func (t *Table) CountDuplicated() int {
	n := 0
	for _, d := range t.Duplicated() {
		if d {
			n++
		}
	}
	return n
}

/*
DuplicatedAll returns every row having an equal row in the table, including the first one of a group
*/
func (t *Table) DuplicatedAll() *Table {
	count := map[string]int{}
	keys := make([]string, t.Len())
	b := &strings.Builder{}
	for i := range keys {
		keys[i] = t.rowKey(i, b)
		count[keys[i]]++
	}
	return t.Filter(func(i int) bool { return count[keys[i]] > 1 })
}

/*
DropDuplicates keeps the first row of every group of equal rows
*/
func (t *Table) DropDuplicates() *Table {
	d := t.Duplicated()
	return t.Filter(func(i int) bool { return !d[i] })
}

/*
NullCount is a count of missing values in a column
*/
type NullCount struct {
	Name string
	N    int
}

/*
Nulls returns missing values count for every column
*/
func (t *Table) Nulls() []NullCount {
	r := make([]NullCount, len(t.cols))
	for i, c := range t.cols {
		r[i] = NullCount{t.names[i], c.NAs()}
	}
	return r
}

/*
HasNulls is true if any column has a missing value
*/
func (t *Table) HasNulls() bool {
	for _, c := range t.cols {
		if c.NAs() > 0 {
			return true
		}
	}
	return false
}
