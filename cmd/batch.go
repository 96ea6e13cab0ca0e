package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tesh254/wp2md/internal/batch"
	"github.com/tesh254/wp2md/internal/logging"
)

var batchCmd = &cobra.Command{
	Use:   "batch <src> <dst>",
	Short: "Converts every post body below src into Markdown files below dst",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		noCache, _ := cmd.Flags().GetBool("no-cache")

		a, closeFn, err := openAPI(noCache)
		if err != nil {
			return err
		}
		defer closeFn()

		config := batch.DefaultConfig()
		config.MaxConcurrent = viper.GetInt("concurrency")
		config.Extension = viper.GetString("extension")
		config.Options = postOptions()
		config.Verbose, _ = cmd.Flags().GetBool("verbose")
		config.Out = cmd.OutOrStdout()

		r := batch.New(a, args[0], args[1], config)
		ctx := logging.WithLogger(cmd.Context(), logging.Default())
		summary, err := r.Run(ctx)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d files failed: %w", summary.Failed, len(r.Results), r.Err())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Int("concurrency", 4, "Number of files converted at the same time")
	batchCmd.Flags().String("extension", ".html", "Extension of the input files")
	batchCmd.Flags().Bool("no-cache", false, "Do not read or write the conversion cache")
	batchCmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	viper.BindPFlag("concurrency", batchCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("extension", batchCmd.Flags().Lookup("extension"))
}
