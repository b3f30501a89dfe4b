// Package procscan finds live wrapper and mount-helper processes. The run
// log answers what already happened; a scan answers what is running right
// now.
package procscan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Process is one live match.
type Process struct {
	PID       int           `json:"pid" yaml:"pid"`
	Command   string        `json:"command" yaml:"command"`
	Cmdline   []string      `json:"cmdline" yaml:"cmdline"`
	Username  string        `json:"username,omitempty" yaml:"username,omitempty"`
	ParentPID int           `json:"parent_pid" yaml:"parent_pid"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Age       time.Duration `json:"age" yaml:"age"`
}

// Scanner matches running processes by command base name.
type Scanner struct {
	targets map[string]bool
	ownPID  int
	now     func() time.Time
}

// NewScanner builds a scanner for the given command names or paths. Paths
// reduce to their base name and empties are dropped. The scanner's own
// process never matches.
func NewScanner(targets []string) *Scanner {
	m := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t == "" {
			continue
		}
		m[filepath.Base(t)] = true
	}
	return &Scanner{targets: m, ownPID: os.Getpid(), now: time.Now}
}

// Scan walks the process table once. Processes that vanish mid-walk are
// skipped, not errors.
func (s *Scanner) Scan() ([]Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var out []Process
	for _, p := range procs {
		if int(p.Pid) == s.ownPID {
			continue
		}
		cmdline, err := p.CmdlineSlice()
		if err != nil || len(cmdline) == 0 {
			continue
		}
		name := filepath.Base(cmdline[0])
		if !s.targets[name] {
			continue
		}

		pr := Process{PID: int(p.Pid), Command: name, Cmdline: cmdline}
		if ppid, err := p.Ppid(); err == nil {
			pr.ParentPID = int(ppid)
		}
		if ms, err := p.CreateTime(); err == nil {
			pr.StartedAt = time.UnixMilli(ms)
			pr.Age = s.now().Sub(pr.StartedAt).Truncate(time.Second)
		}
		if user, err := p.Username(); err == nil {
			pr.Username = user
		}
		out = append(out, pr)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}
