package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andrelucas/mountwrapper/internal/metrics"
	"github.com/andrelucas/mountwrapper/internal/runlog"
	"github.com/andrelucas/mountwrapper/internal/wrapper"
)

// statsCmd aggregates the run log into totals and histograms
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over the run log",
	Long: `Summarize the run log: totals by disposition, exit code and signal
histograms, and timing.

With --output prom the same numbers render in the Prometheus text
format, byte-compatible with what 'mwctl serve' exposes on /metrics.

Examples:
  mwctl stats
  mwctl stats --output json
  mwctl stats --output prom`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if outputFormat == "prom" {
		return metrics.NewExporter(runLogPath()).RenderText(os.Stdout)
	}

	lg, err := runlog.ParseFile(runLogPath())
	if err != nil {
		return err
	}
	s := lg.Stats()

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(s)

	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		table.Append([]string{"Total runs", fmt.Sprintf("%d", s.Total)})
		table.Append([]string{"Completed", fmt.Sprintf("%d", s.Completed)})
		table.Append([]string{"Active", fmt.Sprintf("%d", s.Active)})
		table.Append([]string{"Succeeded", fmt.Sprintf("%d", s.Succeeded)})
		table.Append([]string{"Failed", fmt.Sprintf("%d", s.Failed)})
		table.Append([]string{"Exec failures", fmt.Sprintf("%d", s.ExecFailures)})
		table.Append([]string{"Signal deaths", fmt.Sprintf("%d", s.Signaled)})
		table.Append([]string{"Unknown status", fmt.Sprintf("%d", s.Unknown)})

		if s.Completed > 0 {
			table.Append([]string{"Mean duration", s.MeanDuration.Truncate(time.Millisecond).String()})
		}
		if !s.FirstStart.IsZero() {
			table.Append([]string{"First start", formatStamp(s.FirstStart)})
			table.Append([]string{"Last start", formatStamp(s.LastStart)})
		}
		table.Append([]string{"Skipped lines", fmt.Sprintf("%d", s.SkippedLines)})

		for _, code := range sortedIntKeys(s.ExitCodes) {
			table.Append([]string{fmt.Sprintf("Exit code %d", code), fmt.Sprintf("%d", s.ExitCodes[code])})
		}
		for _, sig := range sortedIntKeys(s.Signals) {
			name := wrapper.SignalName(syscall.Signal(sig))
			table.Append([]string{fmt.Sprintf("Signal %s", name), fmt.Sprintf("%d", s.Signals[sig])})
		}

		table.Render()
		return nil
	}
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
