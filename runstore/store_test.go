package runstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/tables"
	"gotest.tools/assert"
)

func open(t *testing.T) *Store {
	s, err := Open(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_RecordList(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	r := NewRun("neo.csv")
	r.Rows, r.Train, r.Validation, r.Test = 1000, 670, 58, 272
	r.Epochs, r.Seconds = 16, 1.5
	r.Confusion = model.Confusion{TP: 8, FP: 2, TN: 7, FN: 1}
	r.Model = "neo.json.xz"
	epochs := []Epoch{
		{Iteration: 0, Loss: 0.6, Accuracy: 0.7, ValLoss: 0.62, ValAccuracy: 0.68},
		{Iteration: 1, Loss: 0.5, Accuracy: 0.8, ValLoss: math.NaN(), ValAccuracy: math.NaN()},
	}
	assert.NilError(t, s.Record(ctx, r, epochs))

	r2 := NewRun("other.csv")
	r2.StartedAt = r.StartedAt.Add(time.Minute)
	assert.NilError(t, s.Record(ctx, r2, nil))

	runs, err := s.List(ctx, 0)
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 2)
	assert.Equal(t, runs[0].ID, r2.ID)
	assert.Equal(t, runs[1].ID, r.ID)
	assert.Equal(t, runs[1].Confusion, r.Confusion)
	assert.Equal(t, runs[1].Test, 272)
	assert.Assert(t, runs[1].StartedAt.Equal(r.StartedAt))

	runs, err = s.List(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)

	g, err := s.Get(ctx, r.ID[:8])
	assert.NilError(t, err)
	assert.Equal(t, g.Input, "neo.csv")
	_, err = s.Get(ctx, "nope")
	assert.ErrorContains(t, err, "not found")

	e, err := s.Epochs(ctx, r.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(e), 2)
	assert.Equal(t, e[0], epochs[0])
	assert.Assert(t, math.IsNaN(e[1].ValLoss))

	assert.Assert(t, s.Record(ctx, r, nil) != nil)
}

func Test_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	assert.NilError(t, err)
	r := NewRun("neo.csv")
	assert.NilError(t, s.Record(ctx, r, nil))
	assert.NilError(t, s.Close())
	s, err = Open(path)
	assert.NilError(t, err)
	defer s.Close()
	runs, err := s.List(ctx, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
}

func Test_EpochsFromHistory(t *testing.T) {
	h := tables.MakeTable([]string{"iteration", "loss", "accuracy"},
		tables.Col([]int{0, 1}), tables.Col([]float64{0.5, 0.4}), tables.Col([]float64{0.7, 0.8}))
	e := EpochsFromHistory(h)
	assert.Equal(t, len(e), 2)
	assert.Equal(t, e[1].Iteration, 1)
	assert.Equal(t, e[1].Loss, 0.4)
	assert.Assert(t, math.IsNaN(e[1].ValAccuracy))
	assert.Assert(t, EpochsFromHistory(nil) == nil)
}
