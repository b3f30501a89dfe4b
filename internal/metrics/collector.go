// Package metrics exports run-log and host health for Prometheus scrapes.
package metrics

import (
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrelucas/mountwrapper/internal/runlog"
	"github.com/andrelucas/mountwrapper/internal/wrapper"
)

// dispositions are zero-filled on every scrape so dashboards always see
// the full set of series.
var dispositions = []wrapper.Disposition{
	wrapper.DispositionExited,
	wrapper.DispositionExecFailed,
	wrapper.DispositionSignaled,
	wrapper.DispositionUnknown,
}

// LogCollector derives every run metric from the run log at scrape time.
// The wrapper itself carries no instrumentation, so the log is the whole
// truth and re-parsing it keeps the exporter stateless.
type LogCollector struct {
	path string

	present      *prometheus.Desc
	sizeBytes    *prometheus.Desc
	skippedLines *prometheus.Desc
	runsTotal    *prometheus.Desc
	runsActive   *prometheus.Desc
	byExitCode   *prometheus.Desc
	bySignal     *prometheus.Desc
	meanDuration *prometheus.Desc
	lastStart    *prometheus.Desc
}

// NewLogCollector returns a collector reading the run log at path.
func NewLogCollector(path string) *LogCollector {
	return &LogCollector{
		path: path,
		present: prometheus.NewDesc(
			"mountwrapper_log_present",
			"Whether the run log exists and is readable (1=yes, 0=no)",
			nil, nil,
		),
		sizeBytes: prometheus.NewDesc(
			"mountwrapper_log_size_bytes",
			"Size of the run log in bytes",
			nil, nil,
		),
		skippedLines: prometheus.NewDesc(
			"mountwrapper_log_skipped_lines",
			"Run log lines that matched no known shape",
			nil, nil,
		),
		runsTotal: prometheus.NewDesc(
			"mountwrapper_runs_total",
			"Completed wrapper runs by disposition",
			[]string{"disposition"}, nil,
		),
		runsActive: prometheus.NewDesc(
			"mountwrapper_runs_active",
			"Runs with an execute line and no completed line",
			nil, nil,
		),
		byExitCode: prometheus.NewDesc(
			"mountwrapper_runs_by_exit_code",
			"Normally exited runs by exit code",
			[]string{"code"}, nil,
		),
		bySignal: prometheus.NewDesc(
			"mountwrapper_runs_by_signal",
			"Signal-terminated runs by signal number",
			[]string{"signal"}, nil,
		),
		meanDuration: prometheus.NewDesc(
			"mountwrapper_run_duration_seconds",
			"Mean wall time of completed runs in seconds",
			nil, nil,
		),
		lastStart: prometheus.NewDesc(
			"mountwrapper_last_run_start_timestamp_seconds",
			"Unix time of the most recent execute line",
			nil, nil,
		),
	}
}

func (c *LogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.present
	ch <- c.sizeBytes
	ch <- c.skippedLines
	ch <- c.runsTotal
	ch <- c.runsActive
	ch <- c.byExitCode
	ch <- c.bySignal
	ch <- c.meanDuration
	ch <- c.lastStart
}

func (c *LogCollector) Collect(ch chan<- prometheus.Metric) {
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	info, err := os.Stat(c.path)
	if err != nil {
		gauge(c.present, 0)
		return
	}
	lg, err := runlog.ParseFile(c.path)
	if err != nil {
		gauge(c.present, 0)
		return
	}
	s := lg.Stats()

	gauge(c.present, 1)
	gauge(c.sizeBytes, float64(info.Size()))
	gauge(c.skippedLines, float64(s.SkippedLines))

	exited := s.Completed - s.ExecFailures - s.Signaled - s.Unknown
	byDisposition := map[wrapper.Disposition]int{
		wrapper.DispositionExited:     exited,
		wrapper.DispositionExecFailed: s.ExecFailures,
		wrapper.DispositionSignaled:   s.Signaled,
		wrapper.DispositionUnknown:    s.Unknown,
	}
	for _, d := range dispositions {
		counter(c.runsTotal, float64(byDisposition[d]), string(d))
	}

	gauge(c.runsActive, float64(s.Active))

	for code, n := range s.ExitCodes {
		gauge(c.byExitCode, float64(n), strconv.Itoa(code))
	}
	for sig, n := range s.Signals {
		gauge(c.bySignal, float64(n), strconv.Itoa(sig))
	}

	gauge(c.meanDuration, s.MeanDuration.Seconds())
	if !s.LastStart.IsZero() {
		gauge(c.lastStart, float64(s.LastStart.Unix()))
	}
}
