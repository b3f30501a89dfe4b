package procscan

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestNewScannerNormalizesTargets(t *testing.T) {
	s := NewScanner([]string{"/usr/bin/mount.real", "", "mountwrapper"})

	if len(s.targets) != 2 {
		t.Fatalf("targets = %v, want 2 entries", s.targets)
	}
	if !s.targets["mount.real"] || !s.targets["mountwrapper"] {
		t.Errorf("targets = %v", s.targets)
	}
}

func TestScanFindsSpawnedChild(t *testing.T) {
	cmd := exec.Command("/bin/sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		cmd.Wait()
	}()

	s := NewScanner([]string{"sleep"})

	var match *Process
	deadline := time.Now().Add(5 * time.Second)
	for match == nil && time.Now().Before(deadline) {
		procs, err := s.Scan()
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		for i := range procs {
			if procs[i].PID == cmd.Process.Pid {
				match = &procs[i]
				break
			}
		}
		if match == nil {
			time.Sleep(50 * time.Millisecond)
		}
	}
	if match == nil {
		t.Fatal("spawned child not found")
	}

	if match.Command != "sleep" {
		t.Errorf("Command = %q, want sleep", match.Command)
	}
	if len(match.Cmdline) != 2 || match.Cmdline[1] != "30" {
		t.Errorf("Cmdline = %v", match.Cmdline)
	}
	if !match.StartedAt.IsZero() {
		if match.Age < 0 || match.Age > 5*time.Minute {
			t.Errorf("Age = %v", match.Age)
		}
	}
}

func TestScanExcludesOwnProcess(t *testing.T) {
	s := NewScanner([]string{os.Args[0]})

	procs, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, p := range procs {
		if p.PID == os.Getpid() {
			t.Error("scan returned its own process")
		}
	}
}
