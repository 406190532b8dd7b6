package pipeline

import (
	"time"

	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/model/nn"
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
)

// LabelCol is the encoded 0/1 target the network is trained on.
const LabelCol = "label"

// Ingest loads the input CSV.
func Ingest(path string) (*tables.Table, error) {
	return tables.LoadCSV(path)
}

// Clean drops the named columns and duplicated rows, it returns the count of dropped rows.
func Clean(t *tables.Table, drop []string) (*tables.Table, int, error) {
	q, err := t.Drop(drop...)
	if err != nil {
		return nil, 0, err
	}
	n := q.CountDuplicated()
	return q.DropDuplicates(), n, nil
}

// EncodeLabel appends the encoded target as LabelCol, the target must have exactly two classes.
func EncodeLabel(t *tables.Table, target string) (*tables.Table, *prep.LabelEncoder, error) {
	c, ok := t.Lookup(target)
	if !ok {
		return nil, nil, zorros.Errorf("input does not have target column %q", target)
	}
	e := &prep.LabelEncoder{}
	l, err := e.FitTransform(c)
	if err != nil {
		return nil, nil, err
	}
	if len(e.Classes) != 2 {
		return nil, nil, zorros.Errorf("target %q must have two classes, got %v", target, e.Classes)
	}
	return t.With(l, LabelCol), e, nil
}

// Features returns every column except the target and its encoding, all of them must be numeric.
func Features(t *tables.Table, target string) ([]string, error) {
	var r []string
	for _, n := range t.Names() {
		if n == target || n == LabelCol {
			continue
		}
		if !t.Col(n).Numeric() {
			return nil, zorros.Errorf("feature %q is not numeric, drop it or encode it", n)
		}
		r = append(r, n)
	}
	if len(r) == 0 {
		return nil, zorros.Errorf("no feature columns left")
	}
	return r, nil
}

// Scale fits the standard scaler on training features only.
func Scale(train *tables.Table, features []string) (*prep.StandardScaler, error) {
	x, err := train.Matrix(features...)
	if err != nil {
		return nil, err
	}
	sc := &prep.StandardScaler{}
	if err = sc.Fit(x); err != nil {
		return nil, err
	}
	return sc, nil
}

// Network is the model the configuration describes.
func Network(hidden []int, dropout float64, batch int, lr float64, seed int64) nn.Model {
	return nn.Model{
		Hidden:       hidden,
		Dropout:      dropout,
		DropoutAfter: fu.Maxi(len(hidden)-1, 1),
		BatchSize:    batch,
		LearningRate: lr,
		Seed:         seed,
	}
}

// Train fits the network and writes it into the model file.
// It returns the report and the time spent fitting, the model file write is not counted.
func Train(m model.HungryModel, ds model.Dataset, t model.Training) (*model.Report, time.Duration, error) {
	var took time.Duration
	report, err := m.Feed(ds).Train(timedTraining{t, &took})
	if err != nil {
		return nil, 0, err
	}
	return report, took, nil
}

type timedTraining struct {
	model.UnifiedTraining
	took *time.Duration
}

func (t timedTraining) Workout() model.Workout {
	return timedWorkout{t.UnifiedTraining.Workout(), time.Now(), t.took}
}

// timedWorkout notes the time elapsed when each iteration completes its fitting
type timedWorkout struct {
	model.Workout
	start time.Time
	took  *time.Duration
}

func (w timedWorkout) Complete(m model.Memorizer, train, test fu.Struct, done bool) (*model.Report, bool, error) {
	*w.took = time.Since(w.start)
	return w.Workout.Complete(m, train, test, done)
}

func (w timedWorkout) Next() model.Workout {
	n := w.Workout.Next()
	if n == nil {
		return nil
	}
	return timedWorkout{n, w.start, w.took}
}

// Evaluate loads the memorized network and scores the test partition.
func Evaluate(modelFile string, test *tables.Table, m model.Classification) (*nn.Network, model.Confusion, *tables.Table, error) {
	net, err := nn.Load(modelFile)
	if err != nil {
		return nil, model.Confusion{}, nil, err
	}
	c, q, err := model.Evaluate(net, test, LabelCol, m)
	if err != nil {
		return nil, c, nil, err
	}
	return net, c, q, nil
}
