package sweep

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/kvperf/cmd/util"
	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/ValentinKolb/kvperf/lib/results"
	"github.com/ValentinKolb/kvperf/lib/runner"
	"github.com/ValentinKolb/kvperf/lib/sweep"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagFields maps every workload flag to the sweep dimension it overrides
var flagFields = map[string]string{
	"key-kind":               sweep.FieldKeyKind,
	"key-size":               sweep.FieldKeySize,
	"value-kind":             sweep.FieldValueKind,
	"value-size":             sweep.FieldValueSize,
	"threads":                sweep.FieldThreads,
	"mix":                    sweep.FieldMix,
	"init-keys":              sweep.FieldInitKeys,
	"op-keys":                sweep.FieldOpKeys,
	"ops":                    sweep.FieldOps,
	"iterations":             sweep.FieldIterations,
	"distribution":           sweep.FieldDistribution,
	"distribution-parameter": sweep.FieldDistributionParameter,
	"seed":                   sweep.FieldSeed,
	"shards":                 sweep.FieldShards,
}

// config is the processed configuration of a sweep invocation
type config struct {
	params      *sweep.TestParameters
	policy      runner.ConfigErrorPolicy
	paramsFile  string
	out         string
	csv         string
	metricsOut  string
	prompt      bool
	printInputs bool
}

var sweepConfig = &config{}

// SetupFlags adds the sweep flags to cmd
func SetupFlags(cmd *cobra.Command) {
	def := model.DefaultInputs()
	flags := cmd.Flags()

	// workload
	key := "key-kind"
	flags.String(key, string(def.KeyKind), util.WrapString("Key representation (fixed, varlen, object)"))
	key = "key-size"
	flags.Int(key, def.KeySize, util.WrapString("Key size in bytes. Fixed keys support 8, 16, 32, 64, 128 and 256"))
	key = "value-kind"
	flags.String(key, string(def.ValueKind), util.WrapString("Value representation (fixed, varlen, object)"))
	key = "value-size"
	flags.Int(key, def.ValueSize, util.WrapString("Value size in bytes. Fixed values support 8, 16, 32, 64, 128 and 256"))
	key = "threads"
	flags.Int(key, def.ThreadCount, util.WrapString("Number of worker threads"))
	key = "init-keys"
	flags.Int(key, def.InitKeyCount, util.WrapString("Number of keys inserted before the timed iterations"))
	key = "op-keys"
	flags.Int(key, def.OperationKeyCount, util.WrapString("Size of the key space drawn by operations"))
	key = "ops"
	flags.Int(key, def.OperationCount, util.WrapString("Operations per thread and iteration"))
	key = "iterations"
	flags.Int(key, def.IterationCount, util.WrapString("Number of timed iterations"))
	key = "mix"
	flags.String(key, def.MixString(), util.WrapString("Operation mix in percent as read/upsert[/rmw]"))
	key = "distribution"
	flags.String(key, string(def.Distribution), util.WrapString("Key distribution (uniform, zipf)"))
	key = "distribution-parameter"
	flags.Float64(key, def.DistributionParameter, util.WrapString("Zipf exponent, must be greater than 1"))
	key = "seed"
	flags.Int64(key, def.DistributionSeed, util.WrapString("Seed of the operation streams"))
	key = "shards"
	flags.Int(key, def.Shards, util.WrapString("Number of engine shards (0 = number of CPUs)"))

	// sweep
	key = "params"
	flags.String(key, "", util.WrapString("YAML or JSON parameter file describing the sweep. Explicit workload flags override the matching dimension"))
	key = "on-config-error"
	flags.String(key, string(runner.PolicySkip), util.WrapString("What to do with a run that cannot be configured (skip, abort)"))
	key = "out"
	flags.String(key, "", util.WrapString("Write the results to this file (codec from --format or the file extension)"))
	key = "csv"
	flags.String(key, "", util.WrapString("Optional path to save the results as CSV"))
	key = "metrics-out"
	flags.String(key, "", util.WrapString("Optional path to save the sweep metrics in Prometheus text format"))
	key = "prompt"
	flags.Bool(key, false, util.WrapString("Wait for ENTER before exiting"))
}

// ProcessConfig reads the flags and environment variables into the sweep configuration
func ProcessConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	base, err := baseInputs()
	if err != nil {
		return err
	}

	cfg := &config{
		paramsFile: viper.GetString("params"),
		out:        viper.GetString("out"),
		csv:        viper.GetString("csv"),
		metricsOut: viper.GetString("metrics-out"),
		prompt:     viper.GetBool("prompt"),
	}

	if cfg.policy, err = runner.ParseConfigErrorPolicy(viper.GetString("on-config-error")); err != nil {
		return err
	}

	if cfg.paramsFile == "" {
		cfg.params = sweep.NewTestParameters(base)
	} else {
		if cfg.params, err = sweep.Load(cfg.paramsFile, base); err != nil {
			return err
		}
		if err := applyOverrides(cfg.params, cmd.Flags(), base); err != nil {
			return err
		}
		cfg.printInputs = true
	}

	sweepConfig = cfg
	return nil
}

// baseInputs builds the inputs every unset sweep dimension defaults to
func baseInputs() (model.TestInputs, error) {
	in := model.DefaultInputs()
	var err error

	if in.KeyKind, err = model.ParseDataKind(viper.GetString("key-kind")); err != nil {
		return in, err
	}
	if in.ValueKind, err = model.ParseDataKind(viper.GetString("value-kind")); err != nil {
		return in, err
	}
	if in.Distribution, err = model.ParseDistribution(viper.GetString("distribution")); err != nil {
		return in, err
	}
	mix, err := sweep.ParseMix(viper.GetString("mix"))
	if err != nil {
		return in, err
	}
	in.ReadPercent, in.UpsertPercent, in.RMWPercent = mix.Read, mix.Upsert, mix.RMW

	in.KeySize = viper.GetInt("key-size")
	in.ValueSize = viper.GetInt("value-size")
	in.ThreadCount = viper.GetInt("threads")
	in.InitKeyCount = viper.GetInt("init-keys")
	in.OperationKeyCount = viper.GetInt("op-keys")
	in.OperationCount = viper.GetInt("ops")
	in.IterationCount = viper.GetInt("iterations")
	in.DistributionParameter = viper.GetFloat64("distribution-parameter")
	in.DistributionSeed = viper.GetInt64("seed")
	in.Shards = viper.GetInt("shards")

	return in, nil
}

// applyOverrides pins every dimension whose flag was given on the command line
func applyOverrides(params *sweep.TestParameters, flags *pflag.FlagSet, base model.TestInputs) error {
	for flag, field := range flagFields {
		if !flags.Changed(flag) {
			continue
		}
		if err := params.Override(field, base); err != nil {
			return err
		}
		sweep.Logger.Infof("--%s overrides the %s dimension of the parameter file", flag, field)
	}
	return nil
}

// Run executes the configured sweep
func Run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		cfg     = sweepConfig
		out     = cmd.OutOrStdout()
		runs    = cfg.params.GetParamSweeps()
		started = time.Now()
	)

	pool, err := runner.NewPool(runner.MaxThreads(runs))
	if err != nil {
		return err
	}
	defer pool.Close()

	metrics := runner.NewMetrics()
	orchestrator := &runner.Orchestrator{
		Pool:        pool,
		Metrics:     metrics,
		Policy:      cfg.policy,
		Out:         out,
		PrintInputs: cfg.printInputs,
	}

	fmt.Fprintf(out, "Running %d tests with up to %d workers\n\n", len(runs), pool.Cap())

	collected, summary, runErr := orchestrator.Run(ctx, runs)

	// completed results are written even if the sweep was aborted or interrupted
	if err := writeOutputs(cfg, collected, metrics); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if summary.Interrupted {
		fmt.Fprintln(out, "Sweep interrupted")
	}
	fmt.Fprintf(out, "Completed %d of %d tests (%d failed, %d skipped, %d unobserved worker panics) in %s\n",
		summary.Completed, summary.Planned, summary.Failed, summary.Skipped, summary.Unobserved,
		time.Since(started).Round(time.Millisecond))
	if cfg.out != "" {
		fmt.Fprintf(out, "Results written to %s\n", cfg.out)
	}

	if cfg.prompt {
		util.WaitForEnter(cmd.InOrStdin(), out)
	}

	return runErr
}

// writeOutputs writes the result, CSV and metrics files that were requested
func writeOutputs(cfg *config, collected *results.TestResults, metrics *runner.Metrics) error {
	if cfg.out != "" {
		s, err := util.GetSerializer(cfg.out)
		if err != nil {
			return err
		}
		if err := collected.WriteFile(cfg.out, s); err != nil {
			return err
		}
	}

	if cfg.csv != "" {
		f, err := os.Create(cfg.csv)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer f.Close()
		if err := collected.WriteCSV(f); err != nil {
			return err
		}
	}

	if cfg.metricsOut != "" {
		f, err := os.Create(cfg.metricsOut)
		if err != nil {
			return fmt.Errorf("failed to create metrics file: %w", err)
		}
		defer f.Close()
		metrics.WritePrometheus(f)
	}

	return nil
}
