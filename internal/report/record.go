package report

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StampLayout is the per-line timestamp: UTC with microseconds.
const StampLayout = "2006-01-02T15:04:05.000000"

// Timestamp renders t for a log line.
func Timestamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// RunID derives the per-invocation correlation id from t: unix seconds and
// the nanosecond remainder. It pairs the execute and completed lines of one
// run and is distinct from the per-line timestamps.
func RunID(t time.Time) string {
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}

// Record is one invocation's truth. Set once before the child exists,
// never changed: the run id, the binary that will be executed, the argv the
// wrapper itself received (element 0 included) and a canonicalized snapshot
// of the environment.
type Record struct {
	RunID  string
	Binary string
	Argv   []string
	Env    map[string]string
}

// NewRecord snapshots argv and environ. Argv is copied so later mutation of
// the caller's slice cannot reach the record; environ values are
// canonicalized on the way in.
func NewRecord(binary string, argv, environ []string, now time.Time) Record {
	return Record{
		RunID:  RunID(now),
		Binary: binary,
		Argv:   append([]string(nil), argv...),
		Env:    SnapshotEnv(environ),
	}
}

// ExecuteLine is the message buffered before the child is created.
func (r Record) ExecuteLine() string {
	return fmt.Sprintf("runtimestamp %s execute '%s' argv:[%s] environment:[%s]",
		r.RunID, r.Binary, r.argvString(), r.envString())
}

// CompletedLine is the message buffered after the child has been waited
// for. outcome is the classified disposition phrase. The args label (vs
// argv on the execute line) is part of the established format; fleet
// tooling greps for it.
func (r Record) CompletedLine(outcome string) string {
	return fmt.Sprintf("runtimestamp %s completed '%s' args:[%s] %s",
		r.RunID, r.Binary, r.argvString(), outcome)
}

// argvString renders the argument vector as "a","b","c". Elements are
// quoted, not escaped.
func (r Record) argvString() string {
	var b strings.Builder
	for i, a := range r.Argv {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(a)
		b.WriteByte('"')
	}
	return b.String()
}

// envString renders the snapshot as K=V pairs, comma separated, sorted by
// name so runs diff cleanly.
func (r Record) envString() string {
	names := make([]string, 0, len(r.Env))
	for name := range r.Env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(r.Env[name])
	}
	return b.String()
}
