package sweep

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "kvperf"}
	SetupFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	if err := ProcessConfig(cmd, nil); err != nil {
		t.Fatalf("ProcessConfig: %v", err)
	}
	return cmd
}

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessConfig(t *testing.T) {
	t.Run("FlagsOnly", func(t *testing.T) {
		newTestCommand(t, "--key-size", "32", "--mix", "50/50", "--distribution", "ZIPF")

		runs := sweepConfig.params.GetParamSweeps()
		if len(runs) != 1 {
			t.Fatalf("%d runs, want 1", len(runs))
		}
		in := runs[0]
		if in.KeySize != 32 || in.ReadPercent != 50 || in.UpsertPercent != 50 || in.RMWPercent != 0 || in.Distribution != "zipf" {
			t.Errorf("unexpected inputs %+v", in)
		}
		if sweepConfig.printInputs {
			t.Error("inputs are only printed for parameter files")
		}
	})

	t.Run("ParamsWithOverride", func(t *testing.T) {
		path := writeParams(t, "key_size: [8, 16]\nthreads: [1, 2, 4]\n")
		newTestCommand(t, "--params", path, "--threads", "3", "--value-size", "64")

		runs := sweepConfig.params.GetParamSweeps()
		if len(runs) != 2 {
			t.Fatalf("%d runs, want 2", len(runs))
		}
		for _, in := range runs {
			if in.ThreadCount != 3 || in.ValueSize != 64 {
				t.Errorf("override not applied: %+v", in)
			}
		}
		if runs[0].KeySize != 8 || runs[1].KeySize != 16 {
			t.Errorf("unexpected key sizes %d, %d", runs[0].KeySize, runs[1].KeySize)
		}
		if !sweepConfig.printInputs {
			t.Error("inputs of parameter file runs should be printed")
		}
	})
}

func TestProcessConfigErrors(t *testing.T) {
	tests := [][]string{
		{"--key-kind", "blob"},
		{"--mix", "50"},
		{"--distribution", "normal"},
		{"--on-config-error", "retry"},
		{"--params", filepath.Join(os.TempDir(), "does-not-exist.yaml")},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Cleanup(viper.Reset)
			cmd := &cobra.Command{Use: "kvperf"}
			SetupFlags(cmd)
			if err := cmd.ParseFlags(args); err != nil {
				t.Fatal(err)
			}
			if err := ProcessConfig(cmd, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var (
		outPath     = filepath.Join(dir, "results.yaml")
		csvPath     = filepath.Join(dir, "results.csv")
		metricsPath = filepath.Join(dir, "metrics.prom")
		params      = writeParams(t, "key_size: [8, 12, 16]\n")
	)

	cmd := newTestCommand(t,
		"--params", params,
		"--threads", "2", "--init-keys", "50", "--op-keys", "100", "--ops", "200", "--iterations", "2",
		"--out", outPath, "--csv", csvPath, "--metrics-out", metricsPath,
	)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := Run(cmd, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"Test 3 of 3", "Completed 2 of 3 tests (0 failed, 1 skipped, 0 unobserved worker panics)", "Results written to"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q:\n%s", want, out.String())
		}
	}

	res, err := results.ReadFile(outPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 2 {
		t.Errorf("%d results written, want 2", res.Len())
	}

	csv, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(csv), "\n"); lines != 3 {
		t.Errorf("CSV has %d lines, want 3", lines)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), "kvperf_runs_skipped_total 1") {
		t.Errorf("metrics file misses skipped runs:\n%s", prom)
	}
}

func TestRunAllRejected(t *testing.T) {
	cmd := newTestCommand(t, "--key-size", "12", "--ops", "10", "--init-keys", "10", "--op-keys", "10")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := Run(cmd, nil); !errors.Is(err, model.ErrUnsupportedWidth) {
		t.Errorf("expected width error, got %v", err)
	}
	if !strings.Contains(out.String(), "Completed 0 of 1 tests (0 failed, 1 skipped") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
