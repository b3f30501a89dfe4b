package wrapper

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"testing"
)

// Raw wait statuses as the kernel encodes them: exit code in the second
// byte, termination signal in the low bits, 0x7f marking a stop.
func exitStatus(code int) syscall.WaitStatus {
	return syscall.WaitStatus(code << 8)
}

func signalStatus(sig syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(sig)
}

func stoppedStatus(sig syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(0x7f | int(sig)<<8)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		ws          syscall.WaitStatus
		disposition Disposition
		code        int
		signal      syscall.Signal
	}{
		{"clean exit", exitStatus(0), DispositionExited, 0, 0},
		{"exit code 42", exitStatus(42), DispositionExited, 42, 0},
		{"exit code 255", exitStatus(255), DispositionExited, 255, 0},
		{"reserved sentinel", exitStatus(128), DispositionExecFailed, 128, 0},
		{"sigkill", signalStatus(syscall.SIGKILL), DispositionSignaled, 0, syscall.SIGKILL},
		{"sigterm", signalStatus(syscall.SIGTERM), DispositionSignaled, 0, syscall.SIGTERM},
		{"sigsegv with core", syscall.WaitStatus(int(syscall.SIGSEGV) | 0x80), DispositionSignaled, 0, syscall.SIGSEGV},
		{"stopped", stoppedStatus(syscall.SIGSTOP), DispositionUnknown, 0, 0},
		{"continued", syscall.WaitStatus(0xffff), DispositionUnknown, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.ws)
			if out.Disposition != tt.disposition {
				t.Errorf("Disposition = %q, want %q", out.Disposition, tt.disposition)
			}
			if out.Code != tt.code {
				t.Errorf("Code = %d, want %d", out.Code, tt.code)
			}
			if out.Signal != tt.signal {
				t.Errorf("Signal = %d, want %d", out.Signal, tt.signal)
			}
			if out.Raw != tt.ws {
				t.Errorf("Raw = %#x, want %#x", int(out.Raw), int(tt.ws))
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		ws   syscall.WaitStatus
		want string
	}{
		{"exit zero", exitStatus(0), "exit with code 0"},
		{"exit 42", exitStatus(42), "exit with code 42"},
		{"sentinel", exitStatus(128), "failed to execv(2) (ec==128)"},
		{"signal 9", signalStatus(syscall.SIGKILL), "exit with signal 9"},
		{"signal 15", signalStatus(syscall.SIGTERM), "exit with signal 15"},
		{"stopped", stoppedStatus(syscall.SIGSTOP), "stopped with unknown status 4991"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ws).Describe(); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		ws   syscall.WaitStatus
		want int
	}{
		{"mirrors zero", exitStatus(0), 0},
		{"mirrors 42", exitStatus(42), 42},
		{"sentinel propagates", exitStatus(128), 128},
		{"signal is generic failure", signalStatus(syscall.SIGKILL), 1},
		{"not 128 plus signal", signalStatus(syscall.SIGTERM), 1},
		{"unknown is generic failure", stoppedStatus(syscall.SIGSTOP), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ws).ExitCode(); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  syscall.Signal
		want string
	}{
		{syscall.SIGKILL, "SIGKILL"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGSEGV, "SIGSEGV"},
		{syscall.Signal(63), "SIG63"},
	}
	for _, tt := range tests {
		if got := SignalName(tt.sig); got != tt.want {
			t.Errorf("SignalName(%d) = %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestIsSpawnFailure(t *testing.T) {
	pathErr := func(errno syscall.Errno) error {
		return &os.PathError{Op: "fork/exec", Path: "/usr/bin/mount.real", Err: errno}
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"eagain", pathErr(syscall.EAGAIN), true},
		{"enomem", pathErr(syscall.ENOMEM), true},
		{"enosys", pathErr(syscall.ENOSYS), true},
		{"enoent is exec phase", pathErr(syscall.ENOENT), false},
		{"eacces is exec phase", pathErr(syscall.EACCES), false},
		{"enoexec is exec phase", pathErr(syscall.ENOEXEC), false},
		{"wrapped exec error", &exec.Error{Name: "mount.real", Err: syscall.ENOENT}, false},
		{"plain error", errors.New("broken"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSpawnFailure(tt.err); got != tt.want {
				t.Errorf("IsSpawnFailure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgname(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"full path", []string{"/usr/bin/mount"}, "mount"},
		{"bare name", []string{"mount"}, "mount"},
		{"empty argv", nil, "mountwrapper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progname(tt.argv); got != tt.want {
				t.Errorf("Progname = %q, want %q", got, tt.want)
			}
		})
	}
}
