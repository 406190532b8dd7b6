package pipeline

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/tables"
)

type printer struct {
	w io.Writer
}

func (p printer) section(title string) {
	fmt.Fprintf(p.w, "\n=== %s ===\n", title)
}

func (p printer) printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
}

func (p printer) table(t *tables.Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	names := t.Names()
	header := make(table.Row, len(names))
	for i, n := range names {
		header[i] = n
	}
	tw.AppendHeader(header)
	for i := 0; i < t.Len(); i++ {
		row := make(table.Row, len(names))
		for j, n := range names {
			row[j] = t.Col(n).Text(i)
		}
		tw.AppendRow(row)
	}
	tw.Render()
	rows, cols := t.Shape()
	p.printf("(%d rows x %d columns)\n", rows, cols)
}

// info prints dtype and non-null count of every column
func (p printer) info(t *tables.Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "column", "non-null count", "dtype"})
	for i, n := range t.Names() {
		c := t.Col(n)
		tw.AppendRow(table.Row{i, n, fmt.Sprintf("%d non-null", c.Len()-c.NAs()), c.Kind()})
	}
	tw.Render()
	p.printf("%d entries, %d columns\n", t.Len(), t.Width())
}

func (p printer) counts(name string, counts []tables.Count) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{name, "count"})
	for _, c := range counts {
		tw.AppendRow(table.Row{c.Value, c.N})
	}
	tw.Render()
}

func (p printer) nulls(nulls []tables.NullCount) {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"column", "nulls"})
	for _, n := range nulls {
		tw.AppendRow(table.Row{n.Name, n.N})
	}
	tw.Render()
}

func (p printer) confusion(c model.Confusion) {
	p.printf("\nConfusion Matrix:\n%v\n", c)
	p.printf("\nAccuracy score: %v\n", c.Accuracy())
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"metric", "value"})
	tw.AppendRows([]table.Row{
		{"Precision", fmt.Sprintf("%.4f", c.Precision())},
		{"Recall", fmt.Sprintf("%.4f", c.Recall())},
		{"Specificity", fmt.Sprintf("%.4f", c.Specificity())},
		{"F1 Score", fmt.Sprintf("%.4f", c.F1())},
	})
	tw.Render()
}
