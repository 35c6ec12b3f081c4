package compare

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/kvperf/cmd/util"
	"github.com/ValentinKolb/kvperf/lib/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CompareCmd compares two result files
var CompareCmd = &cobra.Command{
	Use:   "compare <mode> <fileA> <fileB>",
	Short: "Compare two result files",
	Long: `Compare the results of two sweeps. Runs are paired by their test inputs.
The mode selects the compared metrics: "throughput" (initial inserts and
ops/sec) or "full" (adds stddev, latency percentiles and elapsed time).
Result files are read with the codec matching their extension.`,
	Args:    cobra.ExactArgs(3),
	PreRunE: util.PreRunBindFlags,
	RunE:    run,
}

func init() {
	key := "out"
	CompareCmd.Flags().String(key, "", util.WrapString("Write the comparison to this file instead of stdout. A .json file gets JSON, anything else markdown"))
}

func run(cmd *cobra.Command, args []string) error {
	mode, err := results.ParseMode(args[0])
	if err != nil {
		return err
	}

	a, err := results.ReadFile(args[1], nil)
	if err != nil {
		return err
	}
	b, err := results.ReadFile(args[2], nil)
	if err != nil {
		return err
	}

	c := results.Compare(a, b, mode)
	if c.Identical() {
		results.Logger.Infof("%s and %s are identical (%s)", args[1], args[2], mode)
	}

	outPath := viper.GetString("out")
	if outPath == "" {
		return results.GenerateReport(cmd.OutOrStdout(), c)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(outPath), ".json") {
		err = results.GenerateJSON(f, c)
	} else {
		err = results.GenerateReport(f, c)
	}
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%d pairs, %d only in A, %d only in B", len(c.Pairs), len(c.OnlyInA), len(c.OnlyInB))
	if c.Identical() {
		summary = fmt.Sprintf("%d pairs, identical", len(c.Pairs))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compared %s, written to %s\n", summary, outPath)
	return nil
}
