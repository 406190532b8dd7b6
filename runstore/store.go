package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go-ml.dev/pkg/neo/model"
	"go-ml.dev/pkg/neo/tables"
	"go-ml.dev/pkg/zorros"
)

//go:embed schema.sql
var schemaSQL string

/*
Run is a recorded pipeline run
*/
type Run struct {
	ID         string
	StartedAt  time.Time
	Input      string
	Rows       int // rows after cleaning
	Duplicates int // dropped duplicated rows
	Train      int
	Validation int
	Test       int
	Leakage    int // test rows also present in the training partition
	Epochs     int
	Seconds    float64 // training time
	Confusion  model.Confusion
	Model      string
}

/*
Epoch is a recorded training iteration, validation metrics are NaN when there was no validation
*/
type Epoch struct {
	Iteration   int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
}

/*
Store keeps history of pipeline runs in SQLite
*/
type Store struct {
	db   *sql.DB
	path string
}

/*
NewRun creates a run with a fresh identifier started now
*/
func NewRun(input string) *Run {
	return &Run{ID: uuid.New().String(), StartedAt: time.Now().UTC(), Input: input}
}

/*
Open opens (creating if needed) the store, ":memory:" opens an in-memory database
*/
func Open(path string) (*Store, error) {
	dsn := ":memory:?_foreign_keys=on"
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to open run store %v: %v", path, err.Error())
	}
	// every connection to :memory: is a distinct database
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, zorros.Wrapf(err, "failed to open run store %v: %v", path, err.Error())
	}
	s := &Store{db: db, path: path}
	if err = s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return zorros.Wrapf(err, "failed to initialize run store schema: %v", err.Error())
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullable(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: !math.IsNaN(f) && !math.IsInf(f, 0)}
}

func nan(f sql.NullFloat64) float64 {
	if f.Valid {
		return f.Float64
	}
	return math.NaN()
}

/*
Record stores the run and its epochs in one transaction
*/
func (s *Store) Record(ctx context.Context, r *Run, epochs []Epoch) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zorros.Trace(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	c := r.Confusion
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, input, total_rows, duplicates, train_rows, val_rows, test_rows, leakage,
			epochs, seconds, tp, fp, tn, fn, accuracy, precision, recall, specificity, f1, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt, r.Input, r.Rows, r.Duplicates, r.Train, r.Validation, r.Test, r.Leakage,
		r.Epochs, r.Seconds, c.TP, c.FP, c.TN, c.FN,
		c.Accuracy(), c.Precision(), c.Recall(), c.Specificity(), c.F1(), r.Model)
	if err != nil {
		return zorros.Wrapf(err, "failed to record run %v: %v", r.ID, err.Error())
	}
	for _, e := range epochs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO epochs (run_id, iteration, loss, accuracy, val_loss, val_accuracy) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, e.Iteration, nullable(e.Loss), nullable(e.Accuracy), nullable(e.ValLoss), nullable(e.ValAccuracy))
		if err != nil {
			return zorros.Wrapf(err, "failed to record epoch %d of run %v: %v", e.Iteration, r.ID, err.Error())
		}
	}
	if err = tx.Commit(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

const runColumns = `id, started_at, input, total_rows, duplicates, train_rows, val_rows, test_rows, leakage,
	epochs, seconds, tp, fp, tn, fn, model`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	r := &Run{}
	c := &r.Confusion
	err := sc.Scan(&r.ID, &r.StartedAt, &r.Input, &r.Rows, &r.Duplicates, &r.Train, &r.Validation, &r.Test,
		&r.Leakage, &r.Epochs, &r.Seconds, &c.TP, &c.FP, &c.TN, &c.FN, &r.Model)
	return r, err
}

/*
List returns the latest runs, the most recent first
*/
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to list runs: %v", err.Error())
	}
	defer rows.Close()
	var r []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, zorros.Trace(err)
		}
		r = append(r, run)
	}
	if err = rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	return r, nil
}

/*
Get returns the run by its identifier or a unique identifier prefix
*/
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`, id, id+"%")
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer rows.Close()
	var r []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, zorros.Trace(err)
		}
		if run.ID == id {
			return run, nil
		}
		r = append(r, run)
	}
	if err = rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	switch len(r) {
	case 0:
		return nil, zorros.Errorf("run not found: %s", id)
	case 1:
		return r[0], nil
	}
	return nil, zorros.Errorf("run id prefix %s is ambiguous", id)
}

/*
Epochs returns recorded epochs of the run ordered by iteration
*/
func (s *Store) Epochs(ctx context.Context, id string) ([]Epoch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, loss, accuracy, val_loss, val_accuracy FROM epochs WHERE run_id = ? ORDER BY iteration`, id)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer rows.Close()
	var r []Epoch
	for rows.Next() {
		e := Epoch{}
		var loss, acc, vloss, vacc sql.NullFloat64
		if err = rows.Scan(&e.Iteration, &loss, &acc, &vloss, &vacc); err != nil {
			return nil, zorros.Trace(err)
		}
		e.Loss, e.Accuracy, e.ValLoss, e.ValAccuracy = nan(loss), nan(acc), nan(vloss), nan(vacc)
		r = append(r, e)
	}
	if err = rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	return r, nil
}

/*
EpochsFromHistory converts a training history table into epoch records
*/
func EpochsFromHistory(history *tables.Table) []Epoch {
	if history == nil {
		return nil
	}
	col := func(name string, i int) float64 {
		if c, ok := history.Lookup(name); ok {
			return c.Float(i)
		}
		return math.NaN()
	}
	r := make([]Epoch, history.Len())
	for i := range r {
		r[i] = Epoch{
			Iteration:   int(col(model.IterationCol, i)),
			Loss:        col(model.LossCol, i),
			Accuracy:    col(model.AccuracyCol, i),
			ValLoss:     col("val_"+model.LossCol, i),
			ValAccuracy: col("val_"+model.AccuracyCol, i),
		}
	}
	return r
}
