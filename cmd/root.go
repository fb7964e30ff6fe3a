// Package cmd implements the command-line interface for the harvester.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/harvester/cmd/classify"
	"github.com/jonesrussell/north-cloud/harvester/cmd/crawl"
	"github.com/jonesrussell/north-cloud/harvester/cmd/probe"
	"github.com/jonesrussell/north-cloud/harvester/internal/config"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "harvester",
		Short: "Classify web pages and extract articles from site sections",
		Long: `harvester fetches pages from government and news sites, tells listing
pages from article pages, follows in-section links and extracts article
records with a tiered fallback.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "harvester version %s\n", Version)
		},
	})

	rootCmd.AddCommand(probe.Command())
	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(classify.Command())
}

// initConfig prepares the global viper instance read by common.NewDeps.
func initConfig(cmd *cobra.Command) error {
	v := viper.GetViper()
	if err := config.Init(v, cfgFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	if err := v.BindPFlag("app.debug", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if Debug {
		v.Set("logger.format", "console")
	}
	return nil
}
