// Package config loads pipeline settings from defaults, neo.yaml, NEO_* environment
// variables and command line flags, later sources overriding earlier ones.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go-ml.dev/pkg/neo/fu"
	"go-ml.dev/pkg/zorros"
)

// DefaultFile is looked up in the working directory when no config file is given.
const DefaultFile = "neo.yaml"

// EnvPrefix of environment overrides, NEO_OUT_DIR sets out_dir.
const EnvPrefix = "NEO_"

// DefaultModelFile is the model file name inside out_dir when model_file is empty.
const DefaultModelFile = "neo.json.xz"

// Config holds all pipeline settings.
type Config struct {
	Input          string   `koanf:"input"`
	OutDir         string   `koanf:"out_dir"`
	ModelFile      string   `koanf:"model_file"`
	StatePath      string   `koanf:"state_path"`
	Plots          bool     `koanf:"plots"`
	Label          string   `koanf:"label"`
	DropColumns    []string `koanf:"drop_columns"`
	ResampleSeed   int64    `koanf:"resample_seed"`
	SplitSeed      int64    `koanf:"split_seed"`
	TestSize       float64  `koanf:"test_size"`
	ValidationSize float64  `koanf:"validation_size"`
	Epochs         int      `koanf:"epochs"`
	BatchSize      int      `koanf:"batch_size"`
	LearningRate   float64  `koanf:"learning_rate"`
	Dropout        float64  `koanf:"dropout"`
	Hidden         []int    `koanf:"hidden"`
	TrainSeed      int64    `koanf:"train_seed"`
	Threshold      float64  `koanf:"threshold"`
	Verbose        bool     `koanf:"verbose"`

	// FileUsed is the config file that was loaded, empty if none.
	FileUsed string `koanf:"-"`
}

// Defaults reproduce the reference run of the notebook.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":           "neo.csv",
		"out_dir":         "out",
		"model_file":      "",
		"state_path":      filepath.Join("out", "runs.db"),
		"plots":           true,
		"label":           "hazardous",
		"drop_columns":    []string{"orbiting_body", "sentry_object", "id", "name"},
		"resample_seed":   42,
		"split_seed":      0,
		"test_size":       0.33,
		"validation_size": 0.175,
		"epochs":          16,
		"batch_size":      32,
		"learning_rate":   0.001,
		"dropout":         0.2,
		"hidden":          []int{64, 32, 16},
		"train_seed":      0,
		"threshold":       0.5,
		"verbose":         false,
	}
}

// RegisterFlags adds flags overriding pipeline settings, only explicitly set flags are applied.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("input", "", "input CSV file")
	fs.String("out-dir", "", "directory for figures, predictions and the model")
	fs.String("model-file", "", "model file, a bare name is placed into the go-ml models cache")
	fs.String("state-path", "", "SQLite run history, empty disables it")
	fs.Bool("plots", true, "render figures")
	fs.String("label", "", "target column")
	fs.StringSlice("drop-columns", nil, "columns to drop before training")
	fs.Int64("resample-seed", 0, "seed of minority oversampling and shuffling")
	fs.Int64("split-seed", 0, "seed of partitioning")
	fs.Float64("test-size", 0, "held-out share of the rebalanced rows")
	fs.Float64("validation-size", 0, "validation share of the held-out rows")
	fs.Int("epochs", 0, "training epochs")
	fs.Int("batch-size", 0, "mini-batch size")
	fs.Float64("learning-rate", 0, "Adam learning rate")
	fs.Float64("dropout", 0, "dropout rate")
	fs.IntSlice("hidden", nil, "hidden layer sizes")
	fs.Int64("train-seed", 0, "seed of weights initialization, batching and dropout")
	fs.Float64("threshold", 0, "probability threshold of the positive class")
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", zorros.Wrapf(err, "config file %v: %v", explicit, err.Error())
		}
		return explicit, nil
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

// Load reads configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, zorros.Wrapf(err, "failed to load defaults: %v", err.Error())
	}

	used, err := findFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, zorros.Wrapf(err, "error reading config file %v: %v", used, err.Error())
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, zorros.Wrapf(err, "failed to load env vars: %v", err.Error())
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, zorros.Wrapf(err, "failed to load flags: %v", err.Error())
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, zorros.Wrapf(err, "unable to decode config: %v", err.Error())
	}
	cfg.FileUsed = used
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func share(name string, v float64) error {
	if v <= 0 || v >= 1 {
		return zorros.Errorf("%s must be in (0,1), got %v", name, v)
	}
	return nil
}

// Validate checks settings are usable by the pipeline.
func (c *Config) Validate() error {
	if c.Input == "" {
		return zorros.Errorf("input is required")
	}
	if c.Label == "" {
		return zorros.Errorf("label is required")
	}
	for _, s := range []struct {
		name string
		v    float64
	}{{"test_size", c.TestSize}, {"validation_size", c.ValidationSize}, {"threshold", c.Threshold}} {
		if err := share(s.name, s.v); err != nil {
			return err
		}
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return zorros.Errorf("dropout must be in [0,1), got %v", c.Dropout)
	}
	if c.Epochs < 1 || c.BatchSize < 1 {
		return zorros.Errorf("epochs and batch_size must be positive, got %d and %d", c.Epochs, c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return zorros.Errorf("learning_rate must be positive, got %v", c.LearningRate)
	}
	if len(c.Hidden) == 0 {
		return zorros.Errorf("hidden requires at least one layer")
	}
	for _, n := range c.Hidden {
		if n <= 0 {
			return zorros.Errorf("hidden layer size must be positive, got %d", n)
		}
	}
	return nil
}

// ModelPath returns where the trained model is written.
func (c *Config) ModelPath() string {
	if c.ModelFile == "" {
		return filepath.Join(c.OutDir, DefaultModelFile)
	}
	return fu.ModelPath(c.ModelFile)
}
