package model

import (
	"fmt"
	"go-ml.dev/pkg/neo/fu"
	"math"
)

const (
	TrainSubset = "train"
	TestSubset  = "test"
)

const (
	IterationCol   = "iteration"
	LossCol        = "loss"
	AccuracyCol    = "accuracy"
	PrecisionCol   = "precision"
	RecallCol      = "recall"
	SpecificityCol = "specificity"
	F1Col          = "f1"
)

/*
MetricsUpdater collects predictions of one iteration subset
*/
type MetricsUpdater interface {
	// Update with a predicted probability, a true 0/1 label and a loss of the sample
	Update(result, label, loss float64)
	// Complete returns metrics and true if training can be stopped
	Complete() (fu.Struct, bool)
}

/*
Metrics creates iteration metrics updaters
*/
type Metrics interface {
	New(iteration int, subset string) MetricsUpdater
	Names() []string
}

/*
Score is a function calculating the model score by its train and test metrics
*/
type Score func(train, test fu.Struct) float64

func Loss(s fu.Struct) float64 {
	return s.Float(LossCol)
}

func Error(s fu.Struct) float64 {
	return 1 - s.Float(AccuracyCol)
}

/*
TestAccuracy scores model by accuracy on the test (validation) subset
*/
func TestAccuracy(train, test fu.Struct) float64 {
	if test.Empty() {
		return train.Float(AccuracyCol)
	}
	return test.Float(AccuracyCol)
}

/*
Confusion is a binary classification confusion matrix
*/
type Confusion struct {
	TP, FP, TN, FN int
}

func (c *Confusion) Add(predicted, actual bool) {
	switch {
	case predicted && actual:
		c.TP++
	case predicted && !actual:
		c.FP++
	case !predicted && !actual:
		c.TN++
	default:
		c.FN++
	}
}

func (c Confusion) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

func (c Confusion) Accuracy() float64 {
	return fu.Ratio(float64(c.TP+c.TN), float64(c.Total()))
}

func (c Confusion) Precision() float64 {
	return fu.Ratio(float64(c.TP), float64(c.TP+c.FP))
}

func (c Confusion) Recall() float64 {
	return fu.Ratio(float64(c.TP), float64(c.TP+c.FN))
}

func (c Confusion) Specificity() float64 {
	return fu.Ratio(float64(c.TN), float64(c.TN+c.FP))
}

func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	return fu.Ratio(2*p*r, p+r)
}

/*
Matrix returns counts with actual classes as rows and predicted as columns: [[TN FP] [FN TP]]
*/
func (c Confusion) Matrix() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

func (c Confusion) String() string {
	m := c.Matrix()
	return fmt.Sprintf("[[%d %d]\n [%d %d]]", m[0][0], m[0][1], m[1][0], m[1][1])
}

/*
Classification metrics of a binary classifier with probability output
*/
type Classification struct {
	Threshold float64 // probability above it is the positive class, 0.5 by default
	Accuracy  float64 // training is done when accuracy reached, 0 means never
}

func (m Classification) threshold() float64 {
	return fu.Fnzd(m.Threshold, 0.5)
}

/*
Predict returns true if the probability is above the threshold
*/
func (m Classification) Predict(p float64) bool {
	return p > m.threshold()
}

func (m Classification) Names() []string {
	return []string{IterationCol, LossCol, AccuracyCol, PrecisionCol, RecallCol, SpecificityCol, F1Col}
}

func (m Classification) New(iteration int, subset string) MetricsUpdater {
	return &classificationUpdater{Classification: m, iteration: iteration}
}

type classificationUpdater struct {
	Classification
	iteration int
	confusion Confusion
	losses    []float64
}

func (u *classificationUpdater) Update(result, label, loss float64) {
	u.confusion.Add(u.Predict(result), label > 0.5)
	u.losses = append(u.losses, loss)
}

func (u *classificationUpdater) Complete() (fu.Struct, bool) {
	c := u.confusion
	loss := math.NaN()
	if len(u.losses) > 0 {
		loss = fu.Mean(u.losses)
	}
	s := fu.MakeStruct(u.Names(),
		float64(u.iteration),
		loss,
		c.Accuracy(),
		c.Precision(),
		c.Recall(),
		c.Specificity(),
		c.F1())
	return s, u.Accuracy > 0 && c.Accuracy() >= u.Accuracy
}
