package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"gotest.tools/assert"
)

func Test_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", nil)
	assert.NilError(t, err)
	assert.Equal(t, cfg.Input, "neo.csv")
	assert.Equal(t, cfg.Label, "hazardous")
	assert.DeepEqual(t, cfg.DropColumns, []string{"orbiting_body", "sentry_object", "id", "name"})
	assert.DeepEqual(t, cfg.Hidden, []int{64, 32, 16})
	assert.Equal(t, cfg.Epochs, 16)
	assert.Equal(t, cfg.BatchSize, 32)
	assert.Equal(t, cfg.ResampleSeed, int64(42))
	assert.Equal(t, cfg.TestSize, 0.33)
	assert.Equal(t, cfg.ValidationSize, 0.175)
	assert.Equal(t, cfg.Threshold, 0.5)
	assert.Assert(t, cfg.Plots)
	assert.Equal(t, cfg.FileUsed, "")
	assert.Equal(t, cfg.ModelPath(), filepath.Join("out", DefaultModelFile))
}

func Test_Precedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yml := "epochs: 4\nbatch_size: 8\nout_dir: results\nhidden: [8, 4]\nplots: false\n"
	assert.NilError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(yml), 0644))
	t.Setenv("NEO_BATCH_SIZE", "16")
	t.Setenv("NEO_OUT_DIR", "env_out")

	fs := pflag.NewFlagSet("neo", pflag.ContinueOnError)
	RegisterFlags(fs)
	assert.NilError(t, fs.Parse([]string{"--out-dir", "flag_out", "--hidden", "5,3"}))

	cfg, err := Load("", fs)
	assert.NilError(t, err)
	assert.Equal(t, cfg.FileUsed, DefaultFile)
	assert.Equal(t, cfg.Epochs, 4)
	assert.Equal(t, cfg.BatchSize, 16)
	assert.Equal(t, cfg.OutDir, "flag_out")
	assert.DeepEqual(t, cfg.Hidden, []int{5, 3})
	assert.Assert(t, !cfg.Plots)
	assert.Equal(t, cfg.LearningRate, 0.001)
}

func Test_Invalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	_, err := Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorContains(t, err, "missing.yaml")

	t.Setenv("NEO_TEST_SIZE", "1.5")
	_, err = Load("", nil)
	assert.ErrorContains(t, err, "test_size")
}

func Test_ModelPath(t *testing.T) {
	c := &Config{OutDir: "out", ModelFile: filepath.Join("models", "m.json.xz")}
	assert.Equal(t, c.ModelPath(), filepath.Join("models", "m.json.xz"))
	c.ModelFile = "m.json.xz"
	assert.Assert(t, c.ModelPath() != "m.json.xz")
}

// chdir stands in for testing.T.Chdir (Go 1.24+): it switches the working
// directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
