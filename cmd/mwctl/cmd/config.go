package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrelucas/mountwrapper/internal/config"
)

var configFormat string

// configCmd shows the configuration the wrapper itself would resolve
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the wrapper's resolved configuration",
	Long: `Resolve the wrapper's configuration exactly as the wrapper binary does:
environment over compiled-in defaults, with empty values ignored.

The --log and --binary flags do not apply here. This command reports
what the wrapper would do on its own, not what mwctl was told.

Examples:
  mwctl config
  mwctl config -o bash >> /etc/default/mountwrapper`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configFormat, "output", "o", "text", "Output format: text, json, yaml, bash")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Resolve()

	switch configFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(cfg)

	case "bash":
		fmt.Println("# mountwrapper environment")
		fmt.Printf("export %s=%s\n", config.OutputEnvVar, cfg.Output)
		fmt.Printf("export %s=%s\n", config.BinaryEnvVar, cfg.Binary)
		return nil

	default:
		fmt.Println("Wrapper configuration:")
		fmt.Printf("  Run log: %s (%s)\n", cfg.Output, cfg.OutputSource)
		fmt.Printf("  Binary:  %s (%s)\n", cfg.Binary, cfg.BinarySource)
		return nil
	}
}
