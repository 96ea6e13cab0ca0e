package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all cached conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage()
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.ListDocuments()
		if err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Key", "Markdown Length", "Converted At", "Checksum"})
		for _, doc := range docs {
			t.AppendRow(table.Row{doc.Key, strconv.Itoa(len(doc.Markdown)), doc.ConvertedAt.Format(time.RFC3339), doc.Checksum[:min(12, len(doc.Checksum))]})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
