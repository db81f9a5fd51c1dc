package smash

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"smash/parser"
)

func TestLaunchRedirectsStdout(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("skipping process-spawning test in CI")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	sh := newTestShell()
	p, ok := parser.Parse("echo hello > " + out)
	if !ok {
		t.Fatalf("failed to parse command")
	}
	job := sh.Jobs.Create(p)
	sh.Jobs.Insert(job)
	if err := sh.Launch(job); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	sh.waitJob(job)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(data)) != "hello" {
		t.Fatalf("got %q, want hello", data)
	}
}

func TestLaunchAppendsStdout(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("skipping process-spawning test in CI")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(out, []byte("first\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sh := newTestShell()
	p, ok := parser.Parse("echo second >> " + out)
	if !ok {
		t.Fatalf("failed to parse command")
	}
	job := sh.Jobs.Create(p)
	sh.Jobs.Insert(job)
	if err := sh.Launch(job); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	sh.waitJob(job)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("got %q, want both lines", data)
	}
}

func TestLaunchPipeline(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("skipping process-spawning test in CI")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	sh := newTestShell()
	p, ok := parser.Parse("echo banana | tr a-z A-Z > " + out)
	if !ok {
		t.Fatalf("failed to parse command")
	}
	job := sh.Jobs.Create(p)
	sh.Jobs.Insert(job)
	if err := sh.Launch(job); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	sh.waitJob(job)
	// waitJob waits for the leader only; reap the later stages too so
	// the last one has finished writing the file.
	for _, pid := range job.Pids[1:] {
		var ws syscall.WaitStatus
		syscall.Wait4(pid, &ws, 0, nil)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(data)) != "BANANA" {
		t.Fatalf("got %q, want BANANA", data)
	}
}

func TestExpandArgvDollarQuestion(t *testing.T) {
	sh := newTestShell()
	sh.LastExitCode = 3
	got := expandArgv(sh, []string{"echo", "$?", "literal"})
	want := []string{"echo", "3", "literal"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExpandArgvEnvVar(t *testing.T) {
	t.Setenv("SMASH_TEST_VAR", "value123")
	sh := newTestShell()
	got := expandArgv(sh, []string{"$SMASH_TEST_VAR"})
	if got[0] != "value123" {
		t.Fatalf("got %q, want value123", got[0])
	}
}
