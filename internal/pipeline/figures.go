package pipeline

import (
	"context"
	"path/filepath"

	"go-ml.dev/pkg/neo/plots"
	"go-ml.dev/pkg/neo/tables"
	"golang.org/x/sync/errgroup"
)

// HistogramFeatures is how many leading features get histograms.
const HistogramFeatures = 5

// Figures renders all figures concurrently into dir and returns their paths.
func Figures(ctx context.Context, dir string, clean *tables.Table, target string, features []string, history *tables.Table) ([]string, error) {
	path := func(name string) string { return filepath.Join(dir, name) }
	paths := []string{
		path(plots.ClassBalanceFile),
		path(plots.FeatureHistogramsFile),
		path(plots.CorrelationFile),
		path(plots.TrainingCurvesFile),
	}
	if len(features) > HistogramFeatures {
		features = features[:HistogramFeatures]
	}

	eg, egCtx := errgroup.WithContext(ctx)
	render := func(f func() error) {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return f()
		})
	}
	render(func() error {
		return plots.ClassBalance(paths[0], target, clean.Col(target).Counts())
	})
	render(func() error {
		return plots.FeatureHistograms(paths[1], clean, target, features)
	})
	render(func() error {
		names := clean.NumericNames()
		corr, err := clean.Corr(names...)
		if err != nil {
			return err
		}
		return plots.CorrelationHeatmap(paths[2], names, corr)
	})
	render(func() error {
		return plots.TrainingCurves(paths[3], history)
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
