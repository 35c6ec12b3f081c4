package merge

import (
	"fmt"

	"github.com/ValentinKolb/kvperf/cmd/util"
	"github.com/ValentinKolb/kvperf/lib/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// MergeCmd combines result files into one
var MergeCmd = &cobra.Command{
	Use:   "merge <filespec>...",
	Short: "Merge result files",
	Long: `Merge result files into one. Every filespec may be a glob pattern and must
match at least one file. By default all results are concatenated in source
order. With --intersect only the runs present in every file are kept, using
the first occurrence.`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: util.PreRunBindFlags,
	RunE:    run,
}

func init() {
	key := "intersect"
	MergeCmd.Flags().Bool(key, false, util.WrapString("Keep only the runs present in every file"))
	key = "out"
	MergeCmd.Flags().String(key, "", util.WrapString("The merged result file (codec from --format or the file extension)"))
	_ = MergeCmd.MarkFlagRequired(key)
}

func run(cmd *cobra.Command, args []string) error {
	merged, err := results.MergeFiles(args, viper.GetBool("intersect"))
	if err != nil {
		return err
	}

	outPath := viper.GetString("out")
	s, err := util.GetSerializer(outPath)
	if err != nil {
		return err
	}
	if err := merged.WriteFile(outPath, s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d results into %s\n", merged.Len(), outPath)
	return nil
}
