package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrelucas/mountwrapper/internal/config"
)

func TestRunMirrorsChildExit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mountwrapper.log")
	t.Setenv(config.OutputEnvVar, logPath)
	t.Setenv(config.BinaryEnvVar, "/bin/sh")

	code := run([]string{"mountwrapper", "-c", "exit 42"}, os.Environ())
	if code != 42 {
		t.Fatalf("run = %d, want 42", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "exit with code 42") {
		t.Errorf("log missing completion line:\n%s", data)
	}
}

func TestRunExecFailure(t *testing.T) {
	t.Setenv(config.OutputEnvVar, filepath.Join(t.TempDir(), "mountwrapper.log"))
	t.Setenv(config.BinaryEnvVar, filepath.Join(t.TempDir(), "no-such-binary"))

	if code := run([]string{"mountwrapper"}, os.Environ()); code != 128 {
		t.Errorf("run = %d, want 128", code)
	}
}

func TestRunUnwritableLogIsFatal(t *testing.T) {
	t.Setenv(config.OutputEnvVar, filepath.Join(t.TempDir(), "missing", "mountwrapper.log"))
	t.Setenv(config.BinaryEnvVar, "/bin/sh")

	if code := run([]string{"mountwrapper", "-c", "exit 0"}, os.Environ()); code != 1 {
		t.Errorf("run = %d, want 1", code)
	}
}
