package smash

import (
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"smash/parser"
)

// Status is a job's position in the state-transition table: new jobs start
// at StatusNew, then move to Running/Suspended/Exited/Aborted/Canceled as
// wait() reports status changes. Mirrors the job_status enum in jobs.h.
type Status int

const (
	StatusNew Status = iota
	StatusRunning
	StatusSuspended
	StatusExited
	StatusAborted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusExited:
		return "exited"
	case StatusAborted:
		return "aborted"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Job is one entry in the job table: a pipeline, the process group that
// runs it, and the bookkeeping the controller needs to move it through
// its state-transition table. Pids holds every process forked for this
// job (one per pipeline stage); Pgid equals Pids[0], the leftmost member.
type Job struct {
	ID           int
	Pipeline     *parser.Pipeline
	Pgid         int
	Pids         []int
	Status       Status
	ExitCode     int
	InBackground bool
	SavedTTY     *term.State
	StartTime    time.Time
}

// JobTable is the shell's ordered collection of jobs: insertion order,
// not a linked list, with ids assigned by a monotonic counter so that ids
// stay strictly increasing for live jobs even across removals - the Go
// replacement for jobs.c's singly-linked list plus "last node's id + 1"
// scheme (see DESIGN.md for why the counter replaces the scan-the-tail
// approach).
type JobTable struct {
	jobs   []*Job
	byPid  map[int]*Job
	nextID int
}

// NewJobTable returns an empty job table.
func NewJobTable() *JobTable {
	return &JobTable{byPid: make(map[int]*Job), nextID: 1}
}

// Create builds a not-yet-launched job for pipeline; it is not inserted
// into the table until Insert is called.
func (jt *JobTable) Create(pipeline *parser.Pipeline) *Job {
	return &Job{Pipeline: pipeline, Status: StatusNew}
}

// Insert assigns job the next id, captures its start time for later
// resource-usage reporting, and appends it to the table.
func (jt *JobTable) Insert(job *Job) {
	job.ID = jt.nextID
	jt.nextID++
	job.StartTime = time.Now()
	jt.jobs = append(jt.jobs, job)
}

// RegisterPid records that pid belongs to job, so the reaping loops can
// map a wait() result back to its job.
func (jt *JobTable) RegisterPid(job *Job, pid int) {
	job.Pids = append(job.Pids, pid)
	jt.byPid[pid] = job
}

// jobForPid looks up the job owning pid, if any.
func (jt *JobTable) jobForPid(pid int) (*Job, bool) {
	j, ok := jt.byPid[pid]
	return j, ok
}

// Remove drops job from the table and its pid index.
func (jt *JobTable) Remove(job *Job) {
	for i, j := range jt.jobs {
		if j == job {
			jt.jobs = append(jt.jobs[:i], jt.jobs[i+1:]...)
			break
		}
	}
	for _, pid := range job.Pids {
		delete(jt.byPid, pid)
	}
}

// Lookup finds a job by id.
func (jt *JobTable) Lookup(id int) (*Job, bool) {
	for _, j := range jt.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// List prints every job's current line to w, then removes any job that
// has reached a terminal state (Exited/Aborted) - matching jobs_list()'s
// print-then-garbage-collect behavior.
func (jt *JobTable) List(w io.Writer) {
	snapshot := append([]*Job(nil), jt.jobs...)
	for _, j := range snapshot {
		writeJobLine(w, j)
	}
	var survivors []*Job
	for _, j := range jt.jobs {
		if j.Status == StatusExited || j.Status == StatusAborted {
			for _, pid := range j.Pids {
				delete(jt.byPid, pid)
			}
			continue
		}
		survivors = append(survivors, j)
	}
	jt.jobs = survivors
}

// writeJobLine formats one job the way print_job() does: no exit code
// for non-terminal states, "(status code)" once the job has exited or
// been killed by a signal.
func writeJobLine(w io.Writer, j *Job) {
	raw := j.Pipeline.Raw
	if raw == "" {
		raw = parser.FormatCommand(j.Pipeline)
	}
	switch j.Status {
	case StatusExited, StatusAborted:
		fmt.Fprintf(w, "[%d] (%s %d) %s\n", j.ID, j.Status, j.ExitCode, raw)
	default:
		fmt.Fprintf(w, "[%d] (%s) %s\n", j.ID, j.Status, raw)
	}
}

// CancelAll sends SIGCONT then SIGTERM to every job still running or
// suspended, and marks each Canceled - the shutdown-time equivalent of
// cancel_all_jobs().
func (jt *JobTable) CancelAll() {
	for _, j := range jt.jobs {
		if j.Status == StatusRunning || j.Status == StatusSuspended {
			syscall.Kill(-j.Pgid, syscall.SIGCONT)
			syscall.Kill(-j.Pgid, syscall.SIGTERM)
			j.Status = StatusCanceled
		}
	}
}

// WaitForAll blocks until every process belonging to a still-live job has
// been reaped, the equivalent of wait_for_all(). The leader pid's wait
// status (Pids[0], the job's own Pgid) drives the job's final
// Status/ExitCode; the remaining pipeline members are reaped purely to
// avoid leaving zombies (spec-testable property: every forked child is
// eventually reaped), without otherwise influencing job state.
func (jt *JobTable) WaitForAll() {
	for _, j := range jt.jobs {
		if !(j.Status == StatusRunning || j.Status == StatusSuspended || j.Status == StatusCanceled) {
			continue
		}
		for _, pid := range j.Pids {
			var status syscall.WaitStatus
			for {
				_, err := syscall.Wait4(pid, &status, 0, nil)
				if err == syscall.EINTR {
					continue
				}
				if err != nil {
					// wait_for_all() in jobs.c calls _exit(-1) here
					// rather than returning: it already runs inside
					// the exit-hook chain, so a wait() failure at
					// this point must terminate immediately with no
					// further hooks rather than unwind normally.
					syscall.Exit(-1)
				}
				break
			}
			if pid == j.Pgid {
				applyWaitStatus(j, status)
			}
		}
	}
}

// applyWaitStatus translates a raw wait() status into a job's Status and
// ExitCode, mirroring job_update_status() in jobs.c exactly.
func applyWaitStatus(j *Job, status syscall.WaitStatus) {
	switch {
	case status.Stopped():
		j.Status = StatusSuspended
	case status.Continued():
		j.Status = StatusRunning
	case status.Signaled():
		j.Status = StatusAborted
		j.ExitCode = int(status.Signal())
	case status.Exited():
		j.Status = StatusExited
		j.ExitCode = status.ExitStatus()
	}
}
