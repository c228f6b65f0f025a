package main

import (
	"fmt"
	"os"

	"github.com/franz/recsync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "recsync",
		Short: "Recording catalog sync - keep the recorded-video catalog in step with disk",
		Long: `recsync maintains a relational catalog of recorded broadcast files.

It walks the configured recording directories, detects added, changed and
removed recordings via content fingerprinting, extracts technical metadata
for new and changed files, and reconciles the catalog database accordingly.
All directories are processed in parallel against one shared database.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./recsync.yaml)")
	rootCmd.PersistentFlags().String("db", "recsync.db", "catalog database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("recsync")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RECSYNC")
	viper.AutomaticEnv()

	// A missing config file is fine: an empty directory list is itself a
	// meaningful configuration
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
