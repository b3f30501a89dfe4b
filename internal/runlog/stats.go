package runlog

import (
	"time"

	"github.com/andrelucas/mountwrapper/internal/wrapper"
)

// Stats aggregates a parsed log for the stats command and the exporter.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Active    int `json:"active" yaml:"active"`

	Succeeded    int `json:"succeeded" yaml:"succeeded"`
	Failed       int `json:"failed" yaml:"failed"`
	ExecFailures int `json:"exec_failures" yaml:"exec_failures"`
	Signaled     int `json:"signaled" yaml:"signaled"`
	Unknown      int `json:"unknown" yaml:"unknown"`

	// ExitCodes counts normal exits by code; Signals counts signal deaths
	// by signal number.
	ExitCodes map[int]int `json:"exit_codes,omitempty" yaml:"exit_codes,omitempty"`
	Signals   map[int]int `json:"signals,omitempty" yaml:"signals,omitempty"`

	FirstStart time.Time `json:"first_start" yaml:"first_start"`
	LastStart  time.Time `json:"last_start" yaml:"last_start"`

	MeanDuration time.Duration `json:"mean_duration" yaml:"mean_duration"`

	SkippedLines int `json:"skipped_lines" yaml:"skipped_lines"`
}

// Stats walks the parsed runs once.
func (l *Log) Stats() Stats {
	s := Stats{
		Total:        len(l.Runs),
		ExitCodes:    make(map[int]int),
		Signals:      make(map[int]int),
		SkippedLines: l.Skipped,
	}

	var durationSum time.Duration
	var durationCount int

	for _, r := range l.Runs {
		if !r.StartedAt.IsZero() {
			if s.FirstStart.IsZero() || r.StartedAt.Before(s.FirstStart) {
				s.FirstStart = r.StartedAt
			}
			if r.StartedAt.After(s.LastStart) {
				s.LastStart = r.StartedAt
			}
		}
		if r.Active() {
			s.Active++
		}
		if !r.Completed() {
			continue
		}
		s.Completed++

		switch r.Disposition {
		case wrapper.DispositionExited:
			s.ExitCodes[r.ExitCode]++
			if r.ExitCode == 0 {
				s.Succeeded++
			} else {
				s.Failed++
			}
		case wrapper.DispositionExecFailed:
			s.ExecFailures++
			s.Failed++
		case wrapper.DispositionSignaled:
			s.Signals[r.Signal]++
			s.Signaled++
			s.Failed++
		default:
			s.Unknown++
			s.Failed++
		}

		if d := r.Duration(); d > 0 {
			durationSum += d
			durationCount++
		}
	}

	if durationCount > 0 {
		s.MeanDuration = durationSum / time.Duration(durationCount)
	}
	return s
}

// Failed keeps the runs that completed with anything but a zero exit.
func Failed(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if r.Completed() && !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Active keeps the runs with an execute line and no completed line.
func Active(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if r.Active() {
			out = append(out, r)
		}
	}
	return out
}

// LastN keeps the trailing n runs in log order.
func LastN(runs []Run, n int) []Run {
	if n <= 0 || n >= len(runs) {
		return runs
	}
	return runs[len(runs)-n:]
}
