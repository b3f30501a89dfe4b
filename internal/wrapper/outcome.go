package wrapper

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import (
	"fmt"
	"syscall"
)

// ExecFailureCode is the reserved exit status marking image replacement
// failure in the child. mount(8) does not use it, so it cannot collide with
// a genuine target exit code.
const ExecFailureCode = 128

// Disposition classifies how the child ended.
type Disposition string

const (
	// DispositionExited: normal termination with an exit code other than
	// the reserved sentinel.
	DispositionExited Disposition = "exited"
	// DispositionExecFailed: normal termination with the sentinel, meaning
	// the child never became the target binary.
	DispositionExecFailed Disposition = "exec-failed"
	// DispositionSignaled: killed by a signal.
	DispositionSignaled Disposition = "signaled"
	// DispositionUnknown: a wait status that is neither a clean exit nor a
	// signal death.
	DispositionUnknown Disposition = "unknown"
)

// Outcome phrases as they appear in the completed log line. Fleet tooling
// greps for these exact strings.
const (
	PhraseExitCode      = "exit with code "
	PhraseExitSignal    = "exit with signal "
	PhraseExecFailed    = "failed to execv(2) (ec==128)"
	PhraseUnknownStatus = "stopped with unknown status "
)

// Outcome is the classified wait result for the single child of a run.
// Produced exactly once, consumed by the log flush and by the wrapper's own
// exit-code decision.
type Outcome struct {
	Disposition Disposition
	Code        int            // set when exited or exec-failed
	Signal      syscall.Signal // set when signaled
	Raw         syscall.WaitStatus
}

// Classify maps a raw wait status onto the outcome taxonomy. Priority
// order: clean exit (sentinel split out), then signal death, then unknown.
func Classify(ws syscall.WaitStatus) Outcome {
	switch {
	case ws.Exited():
		code := ws.ExitStatus()
		if code == ExecFailureCode {
			return Outcome{Disposition: DispositionExecFailed, Code: code, Raw: ws}
		}
		return Outcome{Disposition: DispositionExited, Code: code, Raw: ws}
	case ws.Signaled():
		return Outcome{Disposition: DispositionSignaled, Signal: ws.Signal(), Raw: ws}
	default:
		return Outcome{Disposition: DispositionUnknown, Raw: ws}
	}
}

// Describe renders the phrase for the completed log line.
func (o Outcome) Describe() string {
	switch o.Disposition {
	case DispositionExecFailed:
		return PhraseExecFailed
	case DispositionSignaled:
		return fmt.Sprintf("%s%d", PhraseExitSignal, int(o.Signal))
	case DispositionUnknown:
		return fmt.Sprintf("%s%d", PhraseUnknownStatus, int(o.Raw))
	default:
		return fmt.Sprintf("%s%d", PhraseExitCode, o.Code)
	}
}

// ExitCode is the status the wrapper itself exits with: the child's own
// code for normal exits (the 128 sentinel propagates as-is), 1 for
// everything else. A signal death is deliberately not mapped to 128+n; the
// log carries the signal number, the exit status only says "failed".
func (o Outcome) ExitCode() int {
	switch o.Disposition {
	case DispositionExited, DispositionExecFailed:
		return o.Code
	default:
		return 1
	}
}

// SignalName names the signals mount helpers die from in practice.
func SignalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGBUS:
		return "SIGBUS"
	case syscall.SIGPIPE:
		return "SIGPIPE"
	case syscall.SIGALRM:
		return "SIGALRM"
	default:
		return fmt.Sprintf("SIG%d", sig)
	}
}
