package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Deletes all cached conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintln(cmd.OutOrStdout(), color.RedString("WARNING: This will delete every cached conversion."))
			fmt.Fprint(cmd.OutOrStdout(), "Are you sure you want to continue? (yes/no): ")

			response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if strings.TrimSpace(strings.ToLower(response)) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Clean operation cancelled.")
				return nil
			}
		}

		st, err := openStorage()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Clean(); err != nil {
			return fmt.Errorf("failed to clean database: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleaned successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
