package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tesh254/wp2md/internal/core"
	"github.com/tesh254/wp2md/internal/logging"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := openAPI(false)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := logging.WithLogger(cmd.Context(), logging.Default())
		c := core.New(a)
		server := c.NewServer(Version)

		if httpAddress := viper.GetString("http-address"); httpAddress != "" {
			return c.ServeHTTP(ctx, server, httpAddress)
		}
		return c.ServeStdio(ctx, server)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().String("http-address", "", "HTTP address to listen on (stdio when empty)")
	viper.BindPFlag("http-address", startCmd.Flags().Lookup("http-address"))
}
