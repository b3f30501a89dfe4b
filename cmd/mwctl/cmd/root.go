package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andrelucas/mountwrapper/internal/config"
)

var (
	cfgFile      string
	outputFormat string
	logPath      string
	targetBinary string
	logLevel     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mwctl",
	Short: "Inspect the mount wrapper's run log and configuration",
	Long: `mwctl reads the run log written by the mountwrapper binary and answers
what ran, how it ended, and what the wrapper would execute next.

The wrapper itself stays a pass-through and never grows flags of its
own; every inspection and reporting concern lives here instead.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mwctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Run log path (default from "+config.OutputEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&targetBinary, "binary", "", "Wrapped binary (default from "+config.BinaryEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".mwctl"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// The wrapper's own environment contract doubles as mwctl's defaults,
	// so both tools always agree on which log and binary they mean.
	viper.BindEnv("log", config.OutputEnvVar)
	viper.BindEnv("binary", config.BinaryEnvVar)
	viper.SetDefault("log", config.DefaultOutputFile)
	viper.SetDefault("binary", config.DefaultBinary)

	// A missing config file is fine; environment and defaults cover everything.
	_ = viper.ReadInConfig()

	if logPath == "" {
		logPath = viper.GetString("log")
	}
	if targetBinary == "" {
		targetBinary = viper.GetString("binary")
	}
}

// runLogPath returns the run log file under inspection.
func runLogPath() string {
	return logPath
}

// wrappedBinary returns the target the wrapper would execute.
func wrappedBinary() string {
	return targetBinary
}
