package tables

import (
	"encoding/csv"
	"go-ml.dev/pkg/zorros"
	"golang.org/x/xerrors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

/*
ReadCSV reads a CSV with a header row. Column kinds are inferred from all values:
True/False columns become Bool, parsable numbers become Float and anything else String.
Empty cells are missing values.
*/
func ReadCSV(r io.Reader) (*Table, error) {
	rd := csv.NewReader(r)
	rd.ReuseRecord = false
	header, err := rd.Read()
	if err == io.EOF {
		return nil, xerrors.Errorf("csv has no header: %w", ErrSchema)
	}
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to read csv header: %v", err.Error())
	}
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to read csv: %v", err.Error())
	}
	cols := make([]*Column, len(header))
	for j := range header {
		header[j] = strings.TrimSpace(header[j])
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[j]
		}
		cols[j] = parseColumn(cells)
	}
	return New(header, cols)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseColumn(cells []string) *Column {
	isBool, isFloat := true, true
	for _, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := parseBool(s); !ok {
			isBool = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			isFloat = false
		}
		if !isBool && !isFloat {
			break
		}
	}
	c := &Column{}
	switch {
	case isBool && !allEmpty(cells):
		c.kind = Bool
	case isFloat:
		c.kind = Float
	default:
		c.kind = String
		c.strs = make([]string, len(cells))
	}
	if c.kind != String {
		c.nums = make([]float64, len(cells))
	}
	for i, s := range cells {
		t := strings.TrimSpace(s)
		if t == "" {
			c.setNA(i)
			if c.kind != String {
				c.nums[i] = math.NaN()
			}
			continue
		}
		switch c.kind {
		case Bool:
			if b, _ := parseBool(t); b {
				c.nums[i] = 1
			}
		case Float:
			c.nums[i], _ = strconv.ParseFloat(t, 64)
			if math.IsNaN(c.nums[i]) {
				c.setNA(i)
			}
		default:
			c.strs[i] = s
		}
	}
	return c
}

func allEmpty(cells []string) bool {
	for _, s := range cells {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

/*
LoadCSV reads a CSV file
*/
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, xerrors.Errorf("failed to load %v: %w", path, err)
	}
	return t, nil
}

/*
LuckyLoadCSV reads a CSV file and panics on error
*/
func LuckyLoadCSV(path string) *Table {
	t, err := LoadCSV(path)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return t
}

/*
WriteCSV writes table with a header row
*/
func (t *Table) WriteCSV(w io.Writer) error {
	wr := csv.NewWriter(w)
	if err := wr.Write(t.names); err != nil {
		return zorros.Trace(err)
	}
	row := make([]string, len(t.cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.cols {
			row[j] = c.Text(i)
		}
		if err := wr.Write(row); err != nil {
			return zorros.Trace(err)
		}
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}
