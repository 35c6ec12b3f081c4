package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvperf/cmd/compare"
	"github.com/ValentinKolb/kvperf/cmd/merge"
	"github.com/ValentinKolb/kvperf/cmd/sweep"
	"github.com/ValentinKolb/kvperf/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd runs a benchmark sweep when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvperf",
		Short: "parameterized benchmark driver for in-memory key-value engines",
		Long: fmt.Sprintf(`kvperf (v%s)

Runs a sweep of benchmark configurations against a sharded in-memory
key-value engine. Every run selects a key and value representation
(fixed, varlen, object), a thread count, an operation mix and a key
distribution. Results can be written to a file, merged and compared.

All flags can also be set via environment variables in the format
KVPERF_<flag> (e.g. KVPERF_LOG_LEVEL=debug), or in a .env file.`, Version),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PreRunE:           sweep.ProcessConfig,
		RunE:              sweep.Run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvperf",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvperf v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(compare.CompareCmd)
	RootCmd.AddCommand(merge.MergeCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
	key = "format"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Result file format (json, yaml, gob). Defaults to the format matching the file extension"))

	sweep.SetupFlags(RootCmd)
}

// setup binds the persistent flags and configures the loggers
func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	return util.InitLogging()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
