package smash

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/term"
)

// RunInForeground gives job the controlling terminal, optionally resumes
// it with SIGCONT, blocks until its leader changes state, then reclaims
// the terminal for the shell. Mirrors run_in_foreground() in jobs.c.
func (sh *Shell) RunInForeground(job *Job, cont bool) error {
	if job.Status == StatusRunning && !job.InBackground {
		return fmt.Errorf("job %d is already in the foreground", job.ID)
	}
	if !(job.Status == StatusNew || job.Status == StatusSuspended || job.Status == StatusRunning) {
		return fmt.Errorf("job %d has already terminated", job.ID)
	}

	origStatus := job.Status
	job.Status = StatusRunning
	job.InBackground = false

	if err := sh.setTerminalForeground(job.Pgid); err != nil {
		sh.fatal(err)
	}
	if cont && origStatus != StatusRunning {
		if job.SavedTTY != nil {
			term.Restore(sh.TermFd, job.SavedTTY)
		}
		if err := syscall.Kill(-job.Pgid, syscall.SIGCONT); err != nil {
			sh.fatal(err)
		}
	}

	sh.waitJob(job)
	if err := sh.reclaimTerminal(job); err != nil {
		sh.fatal(err)
	}

	switch job.Status {
	case StatusExited:
		sh.LastExitCode = job.ExitCode
	case StatusSuspended:
		writeJobLine(sh.Stdout, job)
	}
	return nil
}

// RunInBackground moves job to the background, optionally resuming it
// with SIGCONT. Mirrors run_in_background() in jobs.c.
func (sh *Shell) RunInBackground(job *Job, cont bool) error {
	if !(job.Status == StatusNew || job.Status == StatusSuspended) {
		return fmt.Errorf("job %d cannot be backgrounded from state %s", job.ID, job.Status)
	}
	job.Status = StatusRunning
	job.InBackground = true
	if cont {
		if err := syscall.Kill(-job.Pgid, syscall.SIGCONT); err != nil {
			sh.fatal(err)
		}
	}
	return nil
}

// waitJob blocks for a single status change on job's leader process,
// exactly job_wait()'s one waitpid(job->pgid, &status, WUNTRACED) call -
// not a loop over every pipeline member, since only the leader's status
// drives the job's own state transitions.
func (sh *Shell) waitJob(job *Job) {
	var status syscall.WaitStatus
	var rusage syscall.Rusage
	for {
		_, err := syscall.Wait4(job.Pgid, &status, syscall.WUNTRACED, &rusage)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return
		}
		break
	}
	applyWaitStatus(job, status)
	if sh.ReportRusage && (job.Status == StatusExited || job.Status == StatusAborted) {
		sh.printRusage(job, &rusage)
	}
}

// reclaimTerminal transfers the controlling terminal back to the shell's
// own process group, captures the outgoing job's terminal mode for later
// resumption, and restores the shell's own terminal mode. Mirrors
// restore_shell_control() in jobs.c.
func (sh *Shell) reclaimTerminal(job *Job) error {
	if err := sh.setTerminalForeground(sh.ShellPgid); err != nil {
		return err
	}
	if state, err := term.GetState(sh.TermFd); err == nil {
		job.SavedTTY = state
	}
	if sh.TermState != nil {
		return term.Restore(sh.TermFd, sh.TermState)
	}
	return nil
}

// reapNonBlocking drains every already-changed child without blocking,
// updating job status for each leader pid found and discarding the
// wait status of non-leader pipeline members (they are reaped purely to
// avoid zombies). Mirrors smash_wait_all()'s WNOHANG loop in smash.c.
func (sh *Shell) reapNonBlocking() {
	for {
		var status syscall.WaitStatus
		var rusage syscall.Rusage
		pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG|syscall.WUNTRACED|syscall.WCONTINUED, &rusage)
		if err != nil || pid <= 0 {
			return
		}
		job, ok := sh.Jobs.jobForPid(pid)
		if !ok {
			continue
		}
		if pid != job.Pgid {
			continue
		}
		prevStatus := job.Status
		applyWaitStatus(job, status)
		if sh.ReportRusage && (job.Status == StatusExited || job.Status == StatusAborted) {
			sh.printRusage(job, &rusage)
		}
		if job.InBackground && job.Status != prevStatus {
			writeJobLine(sh.Stdout, job)
		}
	}
}

// printRusage writes the "TIMES:" line that jobs.c's EXTRA_CREDIT rusage
// block prints when -t is enabled. real is wall-clock elapsed time since
// job was inserted (gettimeofday() - job->starttime in jobs.c), not CPU
// time; user/sys come from the wait4 rusage as before. Each is formatted
// as seconds plus one decimal digit of sub-second precision.
func (sh *Shell) printRusage(job *Job, ru *syscall.Rusage) {
	elapsed := time.Since(job.StartTime)
	realSec := int64(elapsed / time.Second)
	realTenths := int64(elapsed%time.Second) / 100000000
	fmt.Fprintf(sh.Stderr, "TIMES: real=%d.%01d user=%d.%01d sys=%d.%01d\n",
		realSec, realTenths,
		ru.Utime.Sec, ru.Utime.Usec/100000,
		ru.Stime.Sec, ru.Stime.Usec/100000)
}
