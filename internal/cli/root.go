// Package cli provides the neo command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go-ml.dev/pkg/neo/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type app struct {
	cfgFile string
	verbose bool
	log     *zap.Logger
}

func (a *app) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.FileUsed != "" {
		a.log.Debug("config", zap.String("file", cfg.FileUsed))
	}
	return cfg, nil
}

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "neo",
		Short: "NEO hazard classifier",
		Long: `neo trains a feed-forward network classifying near earth objects as hazardous.

It reads the NASA NEO CSV, drops constant and identifier columns, removes duplicates,
oversamples the minority class, trains on a scaled training partition and reports
the confusion matrix with precision, recall, specificity and F1 on the test partition.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			zc := zap.NewProductionConfig()
			if a.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			log, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./neo.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newPredictCmd(a))
	root.AddCommand(newRunsCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line, interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
