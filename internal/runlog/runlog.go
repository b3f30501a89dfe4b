// Package runlog reads the wrapper's append-only run log back into
// structured runs. The parser is deliberately tolerant: the log may hold
// torn lines from killed wrappers or stray writes from other tools, and a
// diagnostic reader must never die on them. Unrecognized lines are counted
// and skipped.
package runlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andrelucas/mountwrapper/internal/report"
	"github.com/andrelucas/mountwrapper/internal/wrapper"
)

// Run is one wrapper invocation reconstructed from the log: the execute
// line, the completed line, or both when they pair up on the run id.
type Run struct {
	ID     string            `json:"id" yaml:"id"`
	Binary string            `json:"binary" yaml:"binary"`
	Argv   []string          `json:"argv,omitempty" yaml:"argv,omitempty"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`

	Disposition wrapper.Disposition `json:"disposition,omitempty" yaml:"disposition,omitempty"`
	ExitCode    int                 `json:"exit_code" yaml:"exit_code"`
	Signal      int                 `json:"signal,omitempty" yaml:"signal,omitempty"`
	RawStatus   int                 `json:"raw_status,omitempty" yaml:"raw_status,omitempty"`
	// Outcome is the completed line's phrase, verbatim.
	Outcome string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// Completed reports whether the run has a classified ending.
func (r Run) Completed() bool { return r.Disposition != "" }

// Active reports a run that started but never completed: still in flight,
// or a wrapper that died before its flush.
func (r Run) Active() bool { return !r.Completed() && !r.StartedAt.IsZero() }

// Succeeded reports a clean zero exit.
func (r Run) Succeeded() bool {
	return r.Disposition == wrapper.DispositionExited && r.ExitCode == 0
}

// Duration is the wall time between the execute and completed stamps, zero
// when either side is missing.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Log is the parsed view of one run log file.
type Log struct {
	Runs []Run
	// Skipped counts lines that matched no known shape.
	Skipped int
}

// ParseFile parses the run log at path.
func ParseFile(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse consumes r line by line. Only scanner-level failures are errors;
// malformed content is counted in Skipped.
func Parse(r io.Reader) (*Log, error) {
	p := &parser{byID: make(map[string]int)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	return &Log{Runs: p.runs, Skipped: p.skipped}, nil
}

type parser struct {
	runs    []Run
	byID    map[string]int // run id -> index awaiting completion
	skipped int
}

// line handles one log line:
//
//	<stamp> runtimestamp <id> execute '<binary>' argv:[...] environment:[...]
//	<stamp> runtimestamp <id> completed '<binary>' args:[...] <outcome>
func (p *parser) line(s string) {
	stamp, rest, ok := strings.Cut(s, " ")
	if !ok {
		p.skip()
		return
	}
	ts, err := time.Parse(report.StampLayout, stamp)
	if err != nil {
		p.skip()
		return
	}
	rest, ok = strings.CutPrefix(rest, "runtimestamp ")
	if !ok {
		p.skip()
		return
	}
	id, rest, ok := strings.Cut(rest, " ")
	if !ok {
		p.skip()
		return
	}
	verb, rest, ok := strings.Cut(rest, " ")
	if !ok {
		p.skip()
		return
	}
	binary, rest, ok := cutQuoted(rest)
	if !ok {
		p.skip()
		return
	}

	switch verb {
	case "execute":
		p.execute(id, binary, rest, ts)
	case "completed":
		p.completed(id, binary, rest, ts)
	default:
		p.skip()
	}
}

func (p *parser) skip() { p.skipped++ }

func (p *parser) execute(id, binary, rest string, ts time.Time) {
	rest, ok := strings.CutPrefix(rest, " argv:[")
	if !ok {
		p.skip()
		return
	}
	// Arguments may contain anything, so split on the last separator and
	// require the closing bracket at end of line.
	sep := strings.LastIndex(rest, "] environment:[")
	if sep < 0 || !strings.HasSuffix(rest, "]") {
		p.skip()
		return
	}
	argvPart := rest[:sep]
	envPart := rest[sep+len("] environment:[") : len(rest)-1]

	p.byID[id] = len(p.runs)
	p.runs = append(p.runs, Run{
		ID:        id,
		Binary:    binary,
		Argv:      parseArgvList(argvPart),
		Env:       parseEnvList(envPart),
		StartedAt: ts,
	})
}

func (p *parser) completed(id, binary, rest string, ts time.Time) {
	rest, ok := strings.CutPrefix(rest, " args:[")
	if !ok {
		p.skip()
		return
	}
	argvPart, outcome, ok := splitArgsOutcome(rest)
	if !ok {
		p.skip()
		return
	}
	disposition, code, sig, raw, ok := parseOutcome(outcome)
	if !ok {
		p.skip()
		return
	}

	if idx, found := p.byID[id]; found && !p.runs[idx].Completed() {
		r := &p.runs[idx]
		r.CompletedAt = ts
		r.Disposition = disposition
		r.ExitCode = code
		r.Signal = sig
		r.RawStatus = raw
		r.Outcome = outcome
		delete(p.byID, id)
		return
	}

	// Completed line with no execute line: an earlier truncation or a
	// rotated log. Keep what we have.
	p.runs = append(p.runs, Run{
		ID:          id,
		Binary:      binary,
		Argv:        parseArgvList(argvPart),
		CompletedAt: ts,
		Disposition: disposition,
		ExitCode:    code,
		Signal:      sig,
		RawStatus:   raw,
		Outcome:     outcome,
	})
}

// cutQuoted reads a leading single-quoted token:
// "'x' tail" -> "x", " tail".
func cutQuoted(s string) (quoted, rest string, ok bool) {
	if !strings.HasPrefix(s, "'") {
		return "", "", false
	}
	end := strings.Index(s[1:], "'")
	if end < 0 {
		return "", "", false
	}
	return s[1 : 1+end], s[2+end:], true
}

// splitArgsOutcome splits `"a","b"] <outcome>` on the last occurrence of a
// known outcome phrase, so bracket characters inside arguments cannot
// confuse it.
func splitArgsOutcome(s string) (args, outcome string, ok bool) {
	markers := []string{
		"] " + wrapper.PhraseExitCode,
		"] " + wrapper.PhraseExitSignal,
		"] " + wrapper.PhraseExecFailed,
		"] " + wrapper.PhraseUnknownStatus,
	}
	best := -1
	for _, m := range markers {
		if i := strings.LastIndex(s, m); i > best {
			best = i
		}
	}
	if best < 0 {
		return "", "", false
	}
	return s[:best], s[best+2:], true
}

func parseOutcome(s string) (d wrapper.Disposition, code, sig, raw int, ok bool) {
	switch {
	case s == wrapper.PhraseExecFailed:
		return wrapper.DispositionExecFailed, wrapper.ExecFailureCode, 0, 0, true
	case strings.HasPrefix(s, wrapper.PhraseExitCode):
		n, err := strconv.Atoi(strings.TrimPrefix(s, wrapper.PhraseExitCode))
		if err != nil {
			return "", 0, 0, 0, false
		}
		return wrapper.DispositionExited, n, 0, 0, true
	case strings.HasPrefix(s, wrapper.PhraseExitSignal):
		n, err := strconv.Atoi(strings.TrimPrefix(s, wrapper.PhraseExitSignal))
		if err != nil {
			return "", 0, 0, 0, false
		}
		return wrapper.DispositionSignaled, 0, n, 0, true
	case strings.HasPrefix(s, wrapper.PhraseUnknownStatus):
		n, err := strconv.Atoi(strings.TrimPrefix(s, wrapper.PhraseUnknownStatus))
		if err != nil {
			return "", 0, 0, 0, false
		}
		return wrapper.DispositionUnknown, 0, 0, n, true
	}
	return "", 0, 0, 0, false
}

// parseArgvList undoes the quoted-join rendering. Elements are quoted but
// not escaped, so this is best effort for pathological arguments.
func parseArgvList(s string) []string {
	if s == "" {
		return nil
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.Split(s[1:len(s)-1], `","`)
	}
	return []string{s}
}

// parseEnvList splits K=V pairs joined by commas. Canonical values may
// themselves contain commas; mis-splits on such values are accepted.
func parseEnvList(s string) map[string]string {
	if s == "" {
		return nil
	}
	env := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		env[name] = value
	}
	return env
}
