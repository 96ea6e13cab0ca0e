package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tesh254/wp2md/internal/logging"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Converts one post body to Markdown and prints it",
	Long:  `Converts the HTML body of one post to Markdown. Reads stdin when no file or "-" is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noCache, _ := cmd.Flags().GetBool("no-cache")

		var (
			content []byte
			key     string
			err     error
		)
		if len(args) == 0 || args[0] == "-" {
			content, err = io.ReadAll(cmd.InOrStdin())
			// stdin has no stable identity to cache under
			noCache = true
		} else {
			content, err = os.ReadFile(args[0])
			key, _ = filepath.Abs(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		a, closeFn, err := openAPI(noCache)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := logging.WithLogger(cmd.Context(), logging.Default())
		res, err := a.Render(ctx, key, string(content), postOptions())
		if err != nil {
			return err
		}
		logging.Default().Debug("converted", "key", key, "cached", res.Cached)

		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Markdown)
		return err
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Bool("no-cache", false, "Do not read or write the conversion cache")
}
