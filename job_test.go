package smash

import (
	"bytes"
	"strings"
	"syscall"
	"testing"

	"smash/parser"
)

func newTestJob(t *testing.T, jt *JobTable, raw string) *Job {
	t.Helper()
	p, ok := parser.Parse(raw)
	if !ok {
		t.Fatalf("failed to parse %q", raw)
	}
	job := jt.Create(p)
	jt.Insert(job)
	return job
}

func TestJobTableInsertAssignsIncreasingIDs(t *testing.T) {
	jt := NewJobTable()
	a := newTestJob(t, jt, "sleep 1")
	b := newTestJob(t, jt, "sleep 2")
	if a.ID >= b.ID {
		t.Fatalf("expected a.ID (%d) < b.ID (%d)", a.ID, b.ID)
	}
}

func TestJobTableIDsStayMonotonicAfterRemoval(t *testing.T) {
	jt := NewJobTable()
	a := newTestJob(t, jt, "sleep 1")
	jt.Remove(a)
	b := newTestJob(t, jt, "sleep 2")
	if b.ID <= a.ID {
		t.Fatalf("expected new job id (%d) to exceed removed job id (%d)", b.ID, a.ID)
	}
}

func TestJobTableLookup(t *testing.T) {
	jt := NewJobTable()
	a := newTestJob(t, jt, "sleep 1")
	got, ok := jt.Lookup(a.ID)
	if !ok || got != a {
		t.Fatalf("Lookup(%d) = %v, %v; want %v, true", a.ID, got, ok, a)
	}
	if _, ok := jt.Lookup(a.ID + 1000); ok {
		t.Fatalf("expected lookup of unknown id to fail")
	}
}

func TestJobTableListRemovesTerminalJobs(t *testing.T) {
	jt := NewJobTable()
	a := newTestJob(t, jt, "sleep 1")
	a.Status = StatusExited
	a.ExitCode = 0

	var buf bytes.Buffer
	jt.List(&buf)

	if !strings.Contains(buf.String(), "exited 0") {
		t.Fatalf("expected job line to report exit code, got %q", buf.String())
	}
	if _, ok := jt.Lookup(a.ID); ok {
		t.Fatalf("expected exited job to be removed from the table after listing")
	}
}

func TestJobTableListKeepsLiveJobs(t *testing.T) {
	jt := NewJobTable()
	a := newTestJob(t, jt, "sleep 1")
	a.Status = StatusSuspended

	var buf bytes.Buffer
	jt.List(&buf)

	if strings.Contains(buf.String(), "0") {
		t.Fatalf("suspended job line should not carry an exit code: %q", buf.String())
	}
	if _, ok := jt.Lookup(a.ID); !ok {
		t.Fatalf("expected suspended job to remain in the table after listing")
	}
}

func TestApplyWaitStatusExited(t *testing.T) {
	jt := NewJobTable()
	job := newTestJob(t, jt, "true")
	// Synthesize the wait status wait() would report for "exit 7".
	var status syscall.WaitStatus = 7 << 8
	applyWaitStatus(job, status)
	if job.Status != StatusExited || job.ExitCode != 7 {
		t.Fatalf("got status=%v exitcode=%d, want exited 7", job.Status, job.ExitCode)
	}
}
