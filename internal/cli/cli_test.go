package cli

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"gotest.tools/assert"
)

func writeInput(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	b := &strings.Builder{}
	b.WriteString("id,name,est_diameter_min,est_diameter_max,relative_velocity,miss_distance,orbiting_body,sentry_object,absolute_magnitude,hazardous\n")
	for i := 0; i < 200; i++ {
		mag := 16 + rng.Float64()*10
		fmt.Fprintf(b, "%d,(%d AB),%.5f,%.5f,%.3f,%.3f,Earth,False,%.2f,%v\n",
			3000000+i, 1990+i, 1.2/(mag-14), 2.7/(mag-14), 5000+rng.Float64()*1e5, 1e6+rng.Float64()*7e7,
			mag, map[bool]string{true: "True", false: "False"}[mag < 21])
	}
	assert.NilError(t, os.WriteFile("neo.csv", []byte(b.String()), 0644))
	assert.NilError(t, os.WriteFile("neo.yaml", []byte("epochs: 2\nplots: false\nhidden: [8, 4]\n"), 0644))
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func Test_Commands(t *testing.T) {
	chdir(t, t.TempDir())
	writeInput(t)

	out, err := execute(t, "run", "--batch-size", "16")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "Confusion Matrix"))
	assert.Assert(t, strings.Contains(out, "run "))
	_, err = os.Stat("out/neo.json.xz")
	assert.NilError(t, err)

	out, err = execute(t, "runs")
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "neo.csv"))

	out, err = execute(t, "predict", "--model", "out/neo.json.xz", "--input", "neo.csv")
	assert.NilError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, len(lines), 201)
	assert.Assert(t, strings.HasSuffix(lines[0], "Predicted,PredictedClass"))

	_, err = execute(t, "predict", "--input", "neo.csv")
	assert.Assert(t, err != nil)

	_, err = execute(t, "runs", "deadbeef")
	assert.ErrorContains(t, err, "not found")

	out, err = execute(t, "version")
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(out, "neo "))

	_, err = execute(t, "run", "--test-size", "2")
	assert.ErrorContains(t, err, "test_size")
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
