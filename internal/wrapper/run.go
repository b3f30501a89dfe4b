package wrapper

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andrelucas/mountwrapper/internal/config"
	"github.com/andrelucas/mountwrapper/internal/report"
)

// Wrapper drives one wrapped invocation end to end: snapshot the context,
// launch the child with the process image replaced, wait for it, then flush
// the deferred log.
type Wrapper struct {
	cfg     config.Config
	argv    []string
	environ []string
	errOut  io.Writer
}

// New builds a Wrapper around the resolved configuration and the argv and
// environ this process received. Both are forwarded to the child exactly as
// given; argv element 0 stays the wrapper's own invocation name.
func New(cfg config.Config, argv, environ []string) *Wrapper {
	return &Wrapper{cfg: cfg, argv: argv, environ: environ, errOut: os.Stderr}
}

// Run executes the pipeline and returns the wrapper's final exit status.
// A non-nil error is a wrapper-internal fatal condition; the caller reports
// it and exits 1. The log file is not touched before the child has been
// created and waited for, and a spawn failure aborts before any log I/O:
// no child, nothing to record.
func (w *Wrapper) Run() (int, error) {
	rec := report.NewRecord(w.cfg.Binary, w.argv, w.environ, time.Now())
	buf := report.NewBuffer()
	buf.Append(rec.ExecuteLine())

	outcome, err := w.launchAndSupervise()
	if err != nil {
		return 1, err
	}
	buf.Append(rec.CompletedLine(outcome.Describe()))

	if err := buf.Flush(w.cfg.Output); err != nil {
		return 1, err
	}
	return outcome.ExitCode(), nil
}

// launchAndSupervise creates the single child and classifies how it ends.
// The target binary runs with the original argument vector (element 0 is
// the wrapper's invocation name, on purpose: some programs change behavior
// based on their invocation path), the unmodified environment, and the
// wrapper's own standard streams. No process group changes, no signal
// handling: to the child and the terminal this looks like a direct call.
func (w *Wrapper) launchAndSupervise() (Outcome, error) {
	cmd := &exec.Cmd{
		Path:   w.cfg.Binary,
		Args:   w.argv,
		Env:    w.environ,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if err := cmd.Start(); err != nil {
		if IsSpawnFailure(err) {
			return Outcome{}, fmt.Errorf("fork() failed: %w", err)
		}
		// Image replacement failed. Report on stderr like the child would
		// have, and record the reserved sentinel; the flush still runs.
		fmt.Fprintf(w.errOut, "%s (wrapper): execv() failed: %v\n", Progname(w.argv), err)
		return Outcome{Disposition: DispositionExecFailed, Code: ExecFailureCode}, nil
	}

	return supervise(cmd)
}

// supervise blocks until the child is gone. This is the only suspension
// point in the program: no timeout, no cancellation, matching the
// indefinite-wait semantics of the tool being wrapped.
func supervise(cmd *exec.Cmd) (Outcome, error) {
	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
	default:
		return Outcome{}, fmt.Errorf("waitpid() failed: %w", err)
	}

	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return Outcome{Disposition: DispositionUnknown}, nil
	}
	return Classify(ws), nil
}

// IsSpawnFailure splits Start errors into the two underlying phases.
// fork(2) fails only on resource exhaustion; every path, permission or
// format problem belongs to execv(2). The split matters because a spawn
// failure must abort unlogged while an exec failure is a logged outcome
// with the reserved 128 status.
func IsSpawnFailure(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	switch errno {
	case syscall.EAGAIN, syscall.ENOMEM, syscall.ENOSYS:
		return true
	}
	return false
}

// Progname is the name the wrapper reports itself as: the basename of how
// it was invoked, never a hardcoded string. The binary is routinely
// installed under the name of the tool it shadows.
func Progname(argv []string) string {
	if len(argv) == 0 {
		return "mountwrapper"
	}
	return filepath.Base(argv[0])
}
