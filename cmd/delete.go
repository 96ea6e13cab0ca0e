package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Deletes a cached conversion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		st, err := openStorage()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteDocument(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Document with key '%s' deleted successfully.\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
