package prep

import (
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"golang.org/x/xerrors"
	"math/rand"
)

func resample(t *tables.Table, n int, rng *rand.Rand) *tables.Table {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = rng.Intn(t.Len())
	}
	return t.Take(rows)
}

/*
Resample draws n rows with replacement
*/
func Resample(t *tables.Table, n int, seed int64) *tables.Table {
	return resample(t, n, rand.New(rand.NewSource(seed)))
}

/*
Shuffle returns all rows in a random order
*/
func Shuffle(t *tables.Table, seed int64) *tables.Table {
	return t.Take(rand.New(rand.NewSource(seed)).Perm(t.Len()))
}

/*
Balance oversamples every class of the label column up to the size of the majority class.
The majority rows are kept as is and go first, other classes are drawn with replacement
in class order, then the whole table is shuffled.
*/
func Balance(t *tables.Table, label string, seed int64) (*tables.Table, error) {
	c, ok := t.Lookup(label)
	if !ok {
		return nil, xerrors.Errorf("label column %q not found: %w", label, tables.ErrSchema)
	}
	classes := c.Unique()
	if len(classes) < 2 {
		return nil, zorros.Errorf("can't balance %d class(es) of %q", len(classes), label)
	}
	parts := make([]*tables.Table, len(classes))
	major := 0
	for k, v := range classes {
		parts[k] = t.Filter(func(i int) bool { return !c.NA(i) && c.Text(i) == v })
		if parts[k].Len() > parts[major].Len() {
			major = k
		}
	}
	n := parts[major].Len()
	rng := rand.New(rand.NewSource(seed))
	balanced := []*tables.Table{parts[major]}
	for k, p := range parts {
		if k != major {
			balanced = append(balanced, resample(p, n, rng))
		}
	}
	r, err := tables.Concat(balanced...)
	if err != nil {
		return nil, err
	}
	return Shuffle(r, seed), nil
}
