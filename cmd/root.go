package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tesh254/wp2md/internal/api"
	"github.com/tesh254/wp2md/internal/logging"
	"github.com/tesh254/wp2md/internal/storage"
	"github.com/tesh254/wp2md/internal/translator"
)

// Version is set at build time with -ldflags "-X github.com/tesh254/wp2md/cmd.Version=...".
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "wp2md",
	Short:         "wp2md converts WordPress post bodies to Markdown.",
	Long:          `wp2md converts the HTML body of WordPress posts to Markdown for static site generators. Tweets, codepens, scripts, iframes and image galleries are kept as HTML.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetLevel(viper.GetString("log-level"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Default().Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wp2md/config.yaml)")
	rootCmd.PersistentFlags().String("db", defaultDBPath(), "Path to the conversion cache database")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("images-saved-locally", false, "Rewrite image sources to the local images/ folder")

	rootCmd.AddCommand(versionCmd)

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("images-saved-locally", rootCmd.PersistentFlags().Lookup("images-saved-locally"))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".wp2md_data", "wp2md.db")
	}
	return filepath.Join(home, ".wp2md_data", "wp2md.db")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".wp2md"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WP2MD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			logging.Default().Warn("could not read config file", "path", cfgFile, "err", err)
		}
	}
}

func postOptions() translator.Options {
	return translator.Options{ImagesSavedLocally: viper.GetBool("images-saved-locally")}
}

// openAPI builds the API with the shared converter. With noCache the
// database is not opened at all.
func openAPI(noCache bool) (*api.API, func(), error) {
	conv := translator.NewConverter()
	if noCache {
		return api.NewAPI(nil, conv), func() {}, nil
	}

	st, err := storage.NewStorage(viper.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logging.Default().Warn("failed to close storage", "err", err)
		}
	}
	return api.NewAPI(st, conv), closeFn, nil
}

func openStorage() (*storage.Storage, error) {
	st, err := storage.NewStorage(viper.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return st, nil
}
