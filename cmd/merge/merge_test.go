package merge

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func writeResults(t *testing.T, path string, keySizes ...int) {
	t.Helper()
	collected := results.New()
	for _, size := range keySizes {
		in := model.DefaultInputs()
		in.KeySize = size
		collected.Add(&model.TestResult{Inputs: in, Strategy: "fixed/fixed", Status: model.StatusOK})
	}
	if err := collected.WriteFile(path, nil); err != nil {
		t.Fatal(err)
	}
}

func TestMergeCommand(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	writeResults(t, filepath.Join(dir, "run-1.json"), 8, 16)
	writeResults(t, filepath.Join(dir, "run-2.json"), 16)

	tests := []struct {
		intersect bool
		want      int
	}{
		{false, 3},
		{true, 1},
	}

	for _, tt := range tests {
		out := filepath.Join(dir, "merged.gob")
		viper.Set("intersect", tt.intersect)
		viper.Set("out", out)

		cmd := &cobra.Command{}
		cmd.SetOut(&bytes.Buffer{})
		if err := run(cmd, []string{filepath.Join(dir, "run-*.json")}); err != nil {
			t.Fatal(err)
		}

		merged, err := results.ReadFile(out, nil)
		if err != nil {
			t.Fatal(err)
		}
		if merged.Len() != tt.want {
			t.Errorf("intersect=%v: %d results, want %d", tt.intersect, merged.Len(), tt.want)
		}
	}

	if err := run(&cobra.Command{}, []string{filepath.Join(dir, "missing-*.json")}); err == nil {
		t.Error("expected error for a filespec matching nothing")
	}
}
