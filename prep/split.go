package prep

import (
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"math"
	"math/rand"
)

/*
Split is a two-way random split of a table.
TrainRows and TestRows are row positions in the source table.
*/
type Split struct {
	Train, Test         *tables.Table
	TrainRows, TestRows []int
}

/*
TrainTestSplit shuffles row positions and puts ceil(testSize*n) of them into the test part
*/
func TrainTestSplit(t *tables.Table, testSize float64, seed int64) (Split, error) {
	n := t.Len()
	if testSize <= 0 || testSize >= 1 {
		return Split{}, zorros.Errorf("test size must be in (0,1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Split{}, zorros.Errorf("can't split %d rows with test size %v", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	s := Split{TestRows: perm[:nTest], TrainRows: perm[nTest:]}
	s.Train = t.Take(s.TrainRows)
	s.Test = t.Take(s.TestRows)
	return s, nil
}

/*
PartitionConfig defines the three-way split
*/
type PartitionConfig struct {
	TestSize       float64 // share of all rows held out of training
	ValidationSize float64 // share of held out rows used for validation, the rest is test
	Seed           int64
}

/*
DefaultPartition is 67% train, 33% held out, and 17.5%/82.5% validation/test of held out
*/
var DefaultPartition = PartitionConfig{TestSize: 0.33, ValidationSize: 0.175, Seed: 0}

/*
Partitions are disjoint train, validation and test parts of a table.
*Rows are row positions in the partitioned table.
*/
type Partitions struct {
	Train, Validation, Test             *tables.Table
	TrainRows, ValidationRows, TestRows []int
}

/*
Partition splits rows into train and held out parts, then the held out part into test and validation
*/
func Partition(t *tables.Table, cfg PartitionConfig) (Partitions, error) {
	first, err := TrainTestSplit(t, cfg.TestSize, cfg.Seed)
	if err != nil {
		return Partitions{}, zorros.Wrapf(err, "train split: %v", err.Error())
	}
	second, err := TrainTestSplit(first.Test, cfg.ValidationSize, cfg.Seed)
	if err != nil {
		return Partitions{}, zorros.Wrapf(err, "validation split: %v", err.Error())
	}
	p := Partitions{
		Train:      first.Train,
		Test:       second.Train,
		Validation: second.Test,
		TrainRows:  first.TrainRows,
	}
	for _, i := range second.TrainRows {
		p.TestRows = append(p.TestRows, first.TestRows[i])
	}
	for _, i := range second.TestRows {
		p.ValidationRows = append(p.ValidationRows, first.TestRows[i])
	}
	return p, nil
}

/*
Leakage counts rows of b produced from the same source row as some row of a
*/
func Leakage(a, b *tables.Table) int {
	seen := map[int]bool{}
	for _, i := range a.Index() {
		seen[i] = true
	}
	n := 0
	for _, i := range b.Index() {
		if seen[i] {
			n++
		}
	}
	return n
}
