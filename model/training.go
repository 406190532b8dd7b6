package model

import (
	"fmt"
	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"go-ml.dev/pkg/zorros/zlog"
)

/*
Training is the default implementation of unified training interface
*/
type Training struct {
	Iterations   int          // count of iterations (epochs)
	Metrics      Metrics      // evaluating metrics
	Score        Score        // score function, TestAccuracy by default
	ScoreHistory int          // stop when score did not improve for so many iterations, 0 never stops early
	ModelFile    string       // file to store final model
	Verbose      func(string) // print function
}

type training struct {
	Training
	done bool
}

type workout struct {
	iteration int
	training  *training
	perflog   [][2]fu.Struct
	scorlog   []float64
}

func (t Training) Workout() Workout {
	x := &training{Training: t}
	if x.Metrics == nil {
		x.Metrics = Classification{}
	}
	if x.Score == nil {
		x.Score = TestAccuracy
	}
	return &workout{iteration: 0, training: x}
}

func (w *workout) Iteration() int {
	return w.iteration
}

func (w *workout) TrainMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TrainSubset)
}

func (w *workout) TestMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TestSubset)
}

func history(names []string, perflog [][2]fu.Struct) *tables.Table {
	cols := []string{IterationCol}
	for _, n := range names {
		if n != IterationCol {
			cols = append(cols, n)
		}
	}
	withTest := len(perflog) > 0 && !perflog[0][1].Empty()
	if withTest {
		for _, n := range cols[1:] {
			cols = append(cols, "val_"+n)
		}
	}
	values := make([][]float64, len(cols))
	for _, p := range perflog {
		values[0] = append(values[0], p[0].Float(IterationCol))
		k := 1
		for _, s := range p {
			if s.Empty() {
				continue
			}
			for _, n := range names {
				if n != IterationCol {
					values[k] = append(values[k], s.Float(n))
					k++
				}
			}
		}
	}
	columns := make([]*tables.Column, len(cols))
	for i := range cols {
		columns[i] = tables.Floats(values[i])
	}
	return tables.MakeTable(cols, columns...)
}

func (w *workout) report(m Memorizer) (report *Report, err error) {
	report = &Report{History: history(w.training.Metrics.Names(), w.perflog)}
	if len(w.perflog) == 0 {
		return
	}
	j := fu.Indmaxd(w.scorlog)
	last := w.perflog[len(w.perflog)-1]
	report.TheBest = j
	report.Score = w.scorlog[j]
	report.Train = last[0]
	report.Test = last[1]
	if w.training.ModelFile != "" && m != nil {
		if err = Memorize(w.training.ModelFile, m); err != nil {
			err = zorros.Wrapf(err, "failed to store model into %v: %v", w.training.ModelFile, err.Error())
		}
	}
	return
}

func (w *workout) Complete(m Memorizer, train, test fu.Struct, metricsDone bool) (report *Report, done bool, err error) {
	histlen := w.training.ScoreHistory
	maxiter := fu.Maxi(w.training.Iterations, 1)
	score := w.training.Score(train, test)
	w.scorlog = append(w.scorlog, score)
	w.perflog = append(w.perflog, [2]fu.Struct{train, test})
	if metricsDone ||
		w.iteration >= maxiter-1 ||
		(histlen > 0 && len(w.scorlog) > histlen && fu.Indmaxd(w.scorlog[len(w.scorlog)-histlen-1:]) == 0) {
		w.training.done = true
		done = true
		report, err = w.report(m)
	}
	if w.training.Verbose != nil {
		if test.Empty() {
			w.Verbose(fmt.Sprintf(
				"[%3d] loss: %.5f, error: %.5f, score: %.5f",
				w.Iteration(), Loss(train), Error(train), score))
		} else {
			w.Verbose(fmt.Sprintf(
				"[%3d] loss: %.5f/%.5f, error: %.5f/%.5f, score: %.5f",
				w.Iteration(), Loss(train), Loss(test), Error(train), Error(test), score))
		}
	}
	return
}

func (w *workout) Verbose(s string) {
	if w.training.Verbose != nil {
		w.training.Verbose(s)
	}
}

func (w *workout) Next() Workout {
	if w.training.done {
		zlog.Warning("training is already done")
		return nil
	}
	return &workout{
		iteration: w.iteration + 1,
		training:  w.training,
		scorlog:   w.scorlog,
		perflog:   w.perflog,
	}
}
