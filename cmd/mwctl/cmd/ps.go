package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrelucas/mountwrapper/internal/procscan"
)

var psMatch []string

// psCmd scans the live process table for wrapper activity
var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List live wrapper and mount helper processes",
	Long: `Scan the process table for the wrapper and its wrapped binary.

The run log shows history; this shows what is running or wedged right
now, which matters when a mount has been hanging long enough for
someone to go looking.

Examples:
  mwctl ps
  mwctl ps --match mount.nfs --match mount.cifs`,
	RunE: runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)

	psCmd.Flags().StringSliceVar(&psMatch, "match", nil, "Additional command names to match")
}

type psResponse struct {
	Processes []procscan.Process `json:"processes" yaml:"processes"`
	Count     int                `json:"count" yaml:"count"`
}

func runPs(cmd *cobra.Command, args []string) error {
	targets := []string{wrappedBinary(), "mountwrapper"}
	targets = append(targets, psMatch...)

	procs, err := procscan.NewScanner(targets).Scan()
	if err != nil {
		return err
	}

	result := psResponse{Processes: procs, Count: len(procs)}

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(result)

	default:
		if len(procs) == 0 {
			fmt.Println("No matching processes")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("PID", "User", "Started", "Age", "Command line")

		for _, p := range procs {
			table.Append(fmt.Sprintf("%d", p.PID), p.Username, formatStamp(p.StartedAt), p.Age.String(), strings.Join(p.Cmdline, " "))
		}

		table.Render()

		fmt.Printf("\nTotal processes: %d\n", len(procs))
		return nil
	}
}
