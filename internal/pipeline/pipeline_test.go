package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/neo/internal/config"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/runstore"
	"go-ml.dev/pkg/neo/tables"
	"gotest.tools/assert"
)

const header = "id,name,est_diameter_min,est_diameter_max,relative_velocity,miss_distance,orbiting_body,sentry_object,absolute_magnitude,hazardous\n"

func writeNeo(t *testing.T, dir string, n int) string {
	rng := rand.New(rand.NewSource(5))
	b := &strings.Builder{}
	b.WriteString(header)
	var first string
	for i := 0; i < n; i++ {
		mag := 16 + rng.Float64()*10
		dmin := 1.5 / (mag - 14)
		line := fmt.Sprintf("%d,(%d XY),%.6f,%.6f,%.6f,%.6f,Earth,False,%.3f,%v\n",
			2000000+i, 2000+i, dmin, dmin*2.24, 10000+rng.Float64()*90000, 1e6+rng.Float64()*7e7,
			mag, map[bool]string{true: "True", false: "False"}[mag < 20.5])
		if i == 0 {
			first = line
		}
		b.WriteString(line)
	}
	b.WriteString(first)
	path := filepath.Join(dir, "neo.csv")
	assert.NilError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Input:          writeNeo(t, dir, 400),
		OutDir:         filepath.Join(dir, "out"),
		StatePath:      filepath.Join(dir, "out", "runs.db"),
		Plots:          true,
		Label:          "hazardous",
		DropColumns:    []string{"orbiting_body", "sentry_object", "id", "name"},
		ResampleSeed:   42,
		TestSize:       0.33,
		ValidationSize: 0.175,
		Epochs:         3,
		BatchSize:      32,
		LearningRate:   0.001,
		Dropout:        0.2,
		Hidden:         []int{64, 32, 16},
		Threshold:      0.5,
	}
}

func Test_Run(t *testing.T) {
	cfg := testConfig(t)
	out := &bytes.Buffer{}
	r, err := New(cfg, nil, out).Run(context.Background())
	assert.NilError(t, err)

	assert.Equal(t, r.Run.Duplicates, 1)
	assert.Equal(t, r.Clean.Len(), 400)
	assert.DeepEqual(t, r.Clean.Names(), []string{
		"est_diameter_min", "est_diameter_max", "relative_velocity", "miss_distance", "absolute_magnitude", "hazardous"})
	assert.DeepEqual(t, r.Features, []string{
		"est_diameter_min", "est_diameter_max", "relative_velocity", "miss_distance", "absolute_magnitude"})
	assert.DeepEqual(t, r.Encoder.Classes, []string{"False", "True"})

	counts := r.Balanced.Col(LabelCol).Counts()
	assert.Equal(t, len(counts), 2)
	assert.Equal(t, counts[0].N, counts[1].N)
	p := r.Partitions
	assert.Equal(t, p.Train.Len()+p.Validation.Len()+p.Test.Len(), r.Balanced.Len())
	assert.Assert(t, p.Test.Len() > p.Validation.Len())

	assert.Equal(t, r.Report.History.Len(), 3)
	assert.Equal(t, r.Confusion.Total(), p.Test.Len())
	assert.Equal(t, r.Predictions.Len(), p.Test.Len())

	for _, f := range append(r.Figures, cfg.ModelPath(), filepath.Join(cfg.OutDir, PredictionsFile)) {
		_, err := os.Stat(f)
		assert.NilError(t, err, f)
	}
	assert.Equal(t, len(r.Figures), 4)
	assert.Assert(t, strings.Contains(out.String(), "Confusion Matrix"))
	assert.Assert(t, strings.Contains(out.String(), "401 non-null"))
	assert.Assert(t, strings.Contains(out.String(), "401 entries, 10 columns"))

	s, err := runstore.Open(cfg.StatePath)
	assert.NilError(t, err)
	defer s.Close()
	runs, err := s.List(context.Background(), 0)
	assert.NilError(t, err)
	assert.Equal(t, len(runs), 1)
	assert.Equal(t, runs[0].ID, r.Run.ID)
	assert.Equal(t, runs[0].Confusion, r.Confusion)
	epochs, err := s.Epochs(context.Background(), r.Run.ID)
	assert.NilError(t, err)
	assert.Equal(t, len(epochs), 3)

	pout := filepath.Join(cfg.OutDir, "scored.csv")
	q, err := New(cfg, nil, nil).Predict(context.Background(), cfg.ModelPath(), cfg.Input, pout)
	assert.NilError(t, err)
	assert.Equal(t, q.Len(), 401)
	scored := tables.LuckyLoadCSV(pout)
	assert.Equal(t, scored.Col(PredictedClass).Kind(), tables.Bool)
	_, ok := scored.Lookup("Predicted")
	assert.Assert(t, ok)
}

func Test_RunErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plots = false
	cfg.StatePath = ""
	cfg.DropColumns = []string{"orbiting_body", "missing"}
	_, err := New(cfg, nil, nil).Run(context.Background())
	assert.ErrorContains(t, err, "missing")

	cfg = testConfig(t)
	cfg.DropColumns = []string{"id"}
	_, err = New(cfg, nil, nil).Run(context.Background())
	assert.ErrorContains(t, err, "not numeric")

	cfg = testConfig(t)
	cfg.Input = filepath.Join(t.TempDir(), "none.csv")
	_, err = New(cfg, nil, nil).Run(context.Background())
	assert.Assert(t, err != nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(testConfig(t), nil, nil).Run(ctx)
	assert.ErrorContains(t, err, "interrupted")
}

func Test_Stages(t *testing.T) {
	q := tables.MakeTable([]string{"x", "y", "hazardous"},
		tables.Col([]float64{1, 2, 2, 3}),
		tables.Col([]string{"a", "b", "b", "c"}),
		tables.Col([]bool{true, false, false, false}))
	c, n, err := Clean(q, []string{"y"})
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	assert.Equal(t, c.Len(), 3)
	e, enc, err := EncodeLabel(c, "hazardous")
	assert.NilError(t, err)
	assert.DeepEqual(t, e.Col(LabelCol).Floats(), []float64{1, 0, 0})
	assert.Equal(t, len(enc.Classes), 2)
	f, err := Features(e, "hazardous")
	assert.NilError(t, err)
	assert.DeepEqual(t, f, []string{"x"})
	_, err = Features(q, "hazardous")
	assert.ErrorContains(t, err, "not numeric")
	_, _, err = EncodeLabel(c.Head(1), "hazardous")
	assert.ErrorContains(t, err, "two classes")
	assert.Equal(t, Network([]int{8}, 0.1, 4, 0.01, 1).DropoutAfter, 1)
	assert.Equal(t, Network([]int{64, 32, 16}, 0.2, 32, 0.001, 0).DropoutAfter, 2)
}

type slowMemorizer time.Duration

func (s slowMemorizer) Memorize(w io.Writer) error {
	time.Sleep(time.Duration(s))
	_, err := io.WriteString(w, "{}")
	return err
}

type sleepyModel struct{}

func (sleepyModel) Feed(model.Dataset) model.FatModel {
	return func(w model.Workout) (*model.Report, error) {
		for w != nil {
			u := w.TrainMetrics()
			u.Update(0.9, 1, 0.1)
			train, _ := u.Complete()
			report, done, err := w.Complete(slowMemorizer(300*time.Millisecond), train, fu.Struct{}, false)
			if err != nil || done {
				return report, err
			}
			w = w.Next()
		}
		return nil, nil
	}
}

func Test_TrainTiming(t *testing.T) {
	file := filepath.Join(t.TempDir(), "slow.json.xz")
	start := time.Now()
	report, took, err := Train(sleepyModel{}, model.Dataset{}, model.Training{Iterations: 2, ModelFile: file})
	assert.NilError(t, err)
	assert.Assert(t, report != nil)
	assert.Equal(t, report.History.Len(), 2)
	assert.Assert(t, time.Since(start) >= 300*time.Millisecond)
	assert.Assert(t, took < 150*time.Millisecond, "took %v", took)
	_, err = os.Stat(file)
	assert.NilError(t, err)
}
