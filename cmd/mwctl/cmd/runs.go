package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrelucas/mountwrapper/internal/runlog"
)

var (
	runsLast   int
	runsFailed bool
	runsActive bool
)

// runsCmd lists recorded wrapper invocations
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded wrapper runs",
	Long: `Read the run log and list every recorded invocation with its outcome.

Execute and completed lines are paired by run id. A run with no
completed line yet shows as active, which usually means the mount is
still in flight or the wrapper was killed outright.

Examples:
  mwctl runs
  mwctl runs --failed --last 10
  mwctl runs --output json`,
	RunE: runRunsList,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLast, "last", 0, "Show only the N most recent runs (0 = all)")
	runsCmd.Flags().BoolVar(&runsFailed, "failed", false, "Show only runs that did not exit 0")
	runsCmd.Flags().BoolVar(&runsActive, "active", false, "Show only runs without a completed line")
}

type runsResponse struct {
	Runs    []runlog.Run `json:"runs" yaml:"runs"`
	Count   int          `json:"count" yaml:"count"`
	Skipped int          `json:"skipped_lines" yaml:"skipped_lines"`
}

func runRunsList(cmd *cobra.Command, args []string) error {
	lg, err := runlog.ParseFile(runLogPath())
	if err != nil {
		return err
	}

	runs := lg.Runs
	if runsFailed {
		runs = runlog.Failed(runs)
	}
	if runsActive {
		runs = runlog.Active(runs)
	}
	runs = runlog.LastN(runs, runsLast)

	result := runsResponse{Runs: runs, Count: len(runs), Skipped: lg.Skipped}

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
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Run ID", "Started", "Duration", "Binary", "Outcome", "Command")

		for _, r := range runs {
			table.Append(r.ID, formatStamp(r.StartedAt), formatRunDuration(r), r.Binary, formatOutcome(r), formatCommand(r))
		}

		table.Render()

		fmt.Printf("\nTotal runs: %d\n", len(runs))
		if lg.Skipped > 0 {
			fmt.Printf("Skipped %d unparseable lines\n", lg.Skipped)
		}
		return nil
	}
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatRunDuration(r runlog.Run) string {
	if !r.Completed() || r.StartedAt.IsZero() {
		return "-"
	}
	return r.Duration().Truncate(time.Millisecond).String()
}

func formatOutcome(r runlog.Run) string {
	if r.Active() {
		return "active"
	}
	if r.Outcome == "" {
		return "-"
	}
	return r.Outcome
}

func formatCommand(r runlog.Run) string {
	cmdline := strings.Join(r.Argv, " ")
	if len(cmdline) > 60 {
		cmdline = cmdline[:57] + "..."
	}
	return cmdline
}
