package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go-ml.dev/pkg/neo/internal/config"
	"go-ml.dev/pkg/neo/internal/pipeline"
	"go-ml.dev/pkg/neo/runstore"
	"go-ml.dev/pkg/zorros"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline: clean, rebalance, train, evaluate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			r, err := pipeline.New(cfg, a.log, cmd.OutOrStdout()).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s\n", r.Run.ID)
			return nil
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func newPredictCmd(a *app) *cobra.Command {
	var modelFile, input, output string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score rows of a CSV with a trained model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			_, err = pipeline.New(cfg, a.log, cmd.OutOrStdout()).Predict(cmd.Context(), modelFile, input, output)
			return err
		},
	}
	cmd.Flags().StringVar(&modelFile, "model", "", "trained model file")
	cmd.Flags().StringVar(&input, "input", "", "CSV to score")
	cmd.Flags().StringVar(&output, "output", "", "scored CSV (default: stdout)")
	cmd.Flags().Float64("threshold", 0, "probability threshold of the positive class")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func metric(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show recorded runs, or epochs of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			if cfg.StatePath == "" {
				return zorros.Errorf("run history is disabled, state_path is empty")
			}
			s, err := runstore.Open(cfg.StatePath)
			if err != nil {
				return err
			}
			defer s.Close()

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)

			if len(args) == 0 {
				runs, err := s.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw.AppendHeader(table.Row{"id", "started", "input", "rows", "test", "epochs", "seconds", "accuracy", "f1"})
				for _, r := range runs {
					tw.AppendRow(table.Row{
						r.ID[:8], r.StartedAt.Local().Format(time.DateTime), r.Input, r.Rows, r.Test, r.Epochs,
						fmt.Sprintf("%.1f", r.Seconds), metric(r.Confusion.Accuracy()), metric(r.Confusion.F1()),
					})
				}
				tw.Render()
				return nil
			}

			r, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			epochs, err := s.Epochs(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s started %s\n", r.ID, r.StartedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "input %s, model %s\n", r.Input, r.Model)
			fmt.Fprintf(out, "rows %d (duplicates %d), train %d, validation %d, test %d, leakage %d\n",
				r.Rows, r.Duplicates, r.Train, r.Validation, r.Test, r.Leakage)
			fmt.Fprintf(out, "confusion %v\n", r.Confusion.Matrix())
			tw.AppendHeader(table.Row{"epoch", "loss", "accuracy", "val_loss", "val_accuracy"})
			for _, e := range epochs {
				tw.AppendRow(table.Row{e.Iteration + 1, metric(e.Loss), metric(e.Accuracy), metric(e.ValLoss), metric(e.ValAccuracy)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "runs to list, 0 lists all")
	cmd.Flags().String("state-path", "", "SQLite run history")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "neo %s (%s)\n", Version, GitCommit)
		},
	}
}
