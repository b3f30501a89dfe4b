package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrelucas/mountwrapper/internal/logging"
	"github.com/andrelucas/mountwrapper/internal/runlog"
)

var (
	watchInterval time.Duration
	watchFailed   bool
)

// watchCmd follows the run log and prints completions as they land
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the run log and print completions as they land",
	Long: `Poll the run log and print each newly completed run.

Runs already completed when the watch starts are not repeated. A log
that does not exist yet is not an error; the watch waits for the
wrapper to create it.

Examples:
  mwctl watch
  mwctl watch --interval 1s --failed`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "How often to re-read the run log")
	watchCmd.Flags().BoolVar(&watchFailed, "failed", false, "Print only runs that did not exit 0")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logging.NewLogger(logging.ParseLevel(logLevel), false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, stopping watch", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	seen := make(map[string]bool)

	lg, err := runlog.ParseFile(runLogPath())
	switch {
	case err == nil:
		for _, r := range lg.Runs {
			if r.Completed() {
				seen[r.ID] = true
			}
		}
		log.Info("watching run log", map[string]interface{}{
			"path":          runLogPath(),
			"recorded_runs": len(lg.Runs),
		})
	case errors.Is(err, os.ErrNotExist):
		log.Info("run log does not exist yet, waiting", map[string]interface{}{"path": runLogPath()})
	default:
		return err
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			lg, err := runlog.ParseFile(runLogPath())
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					log.Warn("failed to read run log", map[string]interface{}{"error": err.Error()})
				}
				continue
			}

			for _, r := range lg.Runs {
				if !r.Completed() || seen[r.ID] {
					continue
				}
				seen[r.ID] = true

				if watchFailed && r.Succeeded() {
					continue
				}
				printCompletion(r)
			}
		}
	}
}

func printCompletion(r runlog.Run) {
	status := "ok"
	if !r.Succeeded() {
		status = "FAIL"
	}
	fmt.Printf("%s  %-4s  %-10s  %s  %s\n",
		formatStamp(r.CompletedAt), status, formatRunDuration(r), r.Outcome, strings.Join(r.Argv, " "))
}
