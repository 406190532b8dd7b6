// Package pipeline runs the hazard classification end to end:
// ingestion, cleaning, label encoding, rebalancing, partitioning, scaling,
// training, evaluation, figures and run history.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/neo/internal/config"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/model/nn"
	"go-ml.dev/pkg/neo/prep"
	"go-ml.dev/pkg/neo/runstore"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
	"go-ml.dev/pkg/zorros/zlog"
	"go.uber.org/zap"
)

// dropped columns with more distinct values are not worth value counts
const maxCountsShown = 10

// PredictionsFile holds the test partition with predicted probabilities.
const PredictionsFile = "predictions.csv"

// Pipeline holds what the stages share, nothing is kept between runs.
type Pipeline struct {
	Config *config.Config
	Log    *zap.Logger
	Out    io.Writer
}

// Result is everything a run produced.
type Result struct {
	Run         *runstore.Run
	Clean       *tables.Table
	Encoder     *prep.LabelEncoder
	Balanced    *tables.Table
	Partitions  prep.Partitions
	Features    []string
	Scaler      *prep.StandardScaler
	Report      *model.Report
	Network     *nn.Network
	Confusion   model.Confusion
	Predictions *tables.Table
	Figures     []string
}

func New(cfg *config.Config, log *zap.Logger, out io.Writer) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{Config: cfg, Log: log, Out: out}
}

func (p *Pipeline) stage(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return zorros.Wrapf(err, "interrupted before %v: %v", name, err.Error())
	}
	p.Log.Info("stage", zap.String("name", name))
	return nil
}

// Run executes every stage once, the first error aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	pr := printer{p.Out}
	r := &Result{Run: runstore.NewRun(cfg.Input)}

	if err := p.stage(ctx, "ingest"); err != nil {
		return nil, err
	}
	raw, err := Ingest(cfg.Input)
	if err != nil {
		return nil, err
	}
	pr.section("Data")
	pr.table(raw.Head(10))
	pr.section("Info")
	pr.info(raw)

	if err = p.stage(ctx, "clean"); err != nil {
		return nil, err
	}
	for _, n := range cfg.DropColumns {
		if c, ok := raw.Lookup(n); ok && len(c.Unique()) <= maxCountsShown {
			pr.counts(n, c.Counts())
		}
	}
	trimmed, err := raw.Drop(cfg.DropColumns...)
	if err != nil {
		return nil, err
	}
	pr.section("Nulls")
	pr.nulls(trimmed.Nulls())
	pr.section("Head")
	pr.table(trimmed.Head(10))
	pr.section("Tail")
	pr.table(trimmed.Tail(10))
	pr.section("Describe")
	pr.table(trimmed.Describe())
	pr.section("Duplicates")
	pr.printf("duplicated rows: %d\n", trimmed.CountDuplicated())
	if dp := trimmed.DuplicatedAll(); dp.Len() > 0 {
		pr.table(dp.Head(2))
	}
	r.Clean, r.Run.Duplicates, err = Clean(raw, cfg.DropColumns)
	if err != nil {
		return nil, err
	}
	r.Run.Rows = r.Clean.Len()
	pr.printf("duplicated rows after cleaning: %d\n", r.Clean.CountDuplicated())
	if tc, ok := r.Clean.Lookup(cfg.Label); ok {
		pr.counts(cfg.Label, tc.Counts())
	}

	if err = p.stage(ctx, "label"); err != nil {
		return nil, err
	}
	encoded, enc, err := EncodeLabel(r.Clean, cfg.Label)
	if err != nil {
		return nil, err
	}
	r.Encoder = enc
	pr.printf("\n%s classes: %v\n", cfg.Label, enc.Classes)
	if r.Features, err = Features(encoded, cfg.Label); err != nil {
		return nil, err
	}
	if r.Balanced, err = prep.Balance(encoded, LabelCol, cfg.ResampleSeed); err != nil {
		return nil, err
	}
	pr.section("Balanced")
	pr.counts(LabelCol, r.Balanced.Col(LabelCol).Counts())
	pr.printf("shape: %d x %d\n", r.Balanced.Len(), r.Balanced.Width())

	if err = p.stage(ctx, "partition"); err != nil {
		return nil, err
	}
	if r.Partitions, err = prep.Partition(r.Balanced, prep.PartitionConfig{
		TestSize:       cfg.TestSize,
		ValidationSize: cfg.ValidationSize,
		Seed:           cfg.SplitSeed,
	}); err != nil {
		return nil, err
	}
	parts := r.Partitions
	r.Run.Train, r.Run.Validation, r.Run.Test = parts.Train.Len(), parts.Validation.Len(), parts.Test.Len()
	pr.section("Partitions")
	pr.printf("train: %d, validation: %d, test: %d (features: %d)\n",
		r.Run.Train, r.Run.Validation, r.Run.Test, len(r.Features))
	if r.Run.Leakage = prep.Leakage(parts.Train, parts.Test); r.Run.Leakage > 0 {
		zlog.Warning(fmt.Sprintf("%d test rows are oversampled copies of training rows", r.Run.Leakage))
	}
	if r.Scaler, err = Scale(parts.Train, r.Features); err != nil {
		return nil, err
	}

	if err = p.stage(ctx, "train"); err != nil {
		return nil, err
	}
	modelFile := cfg.ModelPath()
	net := Network(cfg.Hidden, cfg.Dropout, cfg.BatchSize, cfg.LearningRate, cfg.TrainSeed)
	metrics := model.Classification{Threshold: cfg.Threshold}
	ds := model.Dataset{
		Source:     parts.Train,
		Validation: parts.Validation,
		Label:      LabelCol,
		Features:   r.Features,
		Scaler:     r.Scaler,
	}
	report, took, err := Train(net, ds, model.Training{
		Iterations: cfg.Epochs,
		Metrics:    metrics,
		ModelFile:  modelFile,
		Verbose:    func(s string) { p.Log.Info("epoch", zap.String("progress", s)) },
	})
	if err != nil {
		return nil, err
	}
	r.Report = report
	r.Run.Epochs = report.History.Len()
	r.Run.Seconds = took.Seconds()
	r.Run.Model = modelFile
	pr.section("Training")
	pr.table(report.History)
	pr.printf("\nTraining model for NASA - Nearest Earth Objects data set took %v seconds.\n", took.Seconds())
	pr.printf("Model saved as %q.\n", modelFile)

	if err = p.stage(ctx, "evaluate"); err != nil {
		return nil, err
	}
	if r.Network, r.Confusion, r.Predictions, err = Evaluate(modelFile, parts.Test, metrics); err != nil {
		return nil, err
	}
	r.Run.Confusion = r.Confusion
	pr.section("Model")
	pr.table(r.Network.Summary())
	pr.section("Evaluation")
	pr.confusion(r.Confusion)
	if err = writeCSV(filepath.Join(cfg.OutDir, PredictionsFile), r.Predictions); err != nil {
		return nil, err
	}

	if cfg.Plots {
		if err = p.stage(ctx, "figures"); err != nil {
			return nil, err
		}
		if r.Figures, err = Figures(ctx, cfg.OutDir, r.Clean, cfg.Label, r.Features, report.History); err != nil {
			return nil, err
		}
		for _, f := range r.Figures {
			p.Log.Debug("figure", zap.String("path", f))
		}
	}

	if cfg.StatePath != "" {
		if err = p.record(ctx, r); err != nil {
			return nil, err
		}
	}
	p.Log.Info("done",
		zap.String("run", r.Run.ID),
		zap.Float64("accuracy", r.Confusion.Accuracy()),
		zap.Float64("f1", r.Confusion.F1()))
	return r, nil
}

func (p *Pipeline) record(ctx context.Context, r *Result) error {
	if err := os.MkdirAll(filepath.Dir(p.Config.StatePath), 0755); err != nil {
		return zorros.Trace(err)
	}
	s, err := runstore.Open(p.Config.StatePath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Record(ctx, r.Run, runstore.EpochsFromHistory(r.Report.History))
}

func writeCSV(path string, t *tables.Table) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zorros.Trace(err)
	}
	f, err := os.Create(path)
	if err != nil {
		return zorros.Trace(err)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = zorros.Trace(e)
		}
	}()
	return t.WriteCSV(f)
}

// PredictedClass is the column with thresholded predictions added by Predict.
const PredictedClass = "PredictedClass"

// Predict scores input rows with a memorized network and writes them as CSV
// into output, or into the pipeline output when output is empty.
func (p *Pipeline) Predict(ctx context.Context, modelFile, input, output string) (*tables.Table, error) {
	if err := p.stage(ctx, "predict"); err != nil {
		return nil, err
	}
	net, err := nn.Load(fu.ModelPath(modelFile))
	if err != nil {
		return nil, err
	}
	t, err := Ingest(input)
	if err != nil {
		return nil, err
	}
	q, err := net.Predict(t)
	if err != nil {
		return nil, err
	}
	m := model.Classification{Threshold: p.Config.Threshold}
	pc := q.Col(net.Predicted())
	cls := make([]bool, q.Len())
	for i := range cls {
		cls[i] = m.Predict(pc.Float(i))
	}
	q = q.With(tables.Col(cls), PredictedClass)
	if output == "" {
		return q, q.WriteCSV(p.Out)
	}
	return q, writeCSV(output, q)
}
