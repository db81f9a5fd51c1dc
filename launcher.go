package smash

import (
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"smash/parser"
)

// redirectPerm matches the mode bits launch_child() passes to open(2) for
// a redirected file: rw for owner, group, and other.
const redirectPerm = 0666

// Launch forks and execs every command in job's pipeline, wiring pipes
// between stages and opening each stage's redirections, then assigns the
// whole group job's process-group id. It mirrors exec_job()'s fork loop
// in jobs.c: pipe() before the fork that needs it, dup-equivalent
// redirection setup per child, and a parent+child race on setpgid that is
// intentional (see DESIGN.md).
func (sh *Shell) Launch(job *Job) error {
	cmds := job.Pipeline.Commands
	n := len(cmds)

	readEnds := make([]*os.File, n)
	writeEnds := make([]*os.File, n)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return err
		}
		readEnds[i+1] = r
		writeEnds[i] = w
	}

	resetJobControlSignals()
	if sh.Interactive {
		defer ignoreJobControlSignals()
	}

	for i, cmd := range cmds {
		argv := expandArgv(sh, cmd.Argv)
		execCmd := exec.Command(argv[0], argv[1:]...)
		execCmd.Env = os.Environ()

		stdin, stdinFile, err := sh.stageStdin(cmd, readEnds[i])
		if err != nil {
			return err
		}
		defer closeIfFile(stdinFile)
		execCmd.Stdin = stdin

		stdout, stdoutFile, err := sh.stageStdout(cmd, writeEnds[i])
		if err != nil {
			return err
		}
		defer closeIfFile(stdoutFile)
		execCmd.Stdout = stdout

		stderr, stderrFile, err := sh.stageStderr(cmd)
		if err != nil {
			return err
		}
		defer closeIfFile(stderrFile)
		execCmd.Stderr = stderr

		execCmd.SysProcAttr = &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    job.Pgid,
		}

		if err := execCmd.Start(); err != nil {
			return err
		}
		pid := execCmd.Process.Pid
		if i == 0 {
			job.Pgid = pid
		}
		// Redundant parent-side setpgid, racing the child's own
		// setpgid from SysProcAttr - both must run so whichever
		// completes first still leaves the group correctly formed
		// by the time anyone (parent or sibling) looks it up.
		syscall.Setpgid(pid, job.Pgid)
		sh.Jobs.RegisterPid(job, pid)

		// Start() has already dup'd these fds into the child; the
		// parent's own copies must close now so EOF propagates down
		// the pipeline once each stage exits.
		closeIfFile(readEnds[i])
		closeIfFile(writeEnds[i])
	}

	return nil
}

// expandArgv resolves "$?" to the decimal last exit code and "$NAME" to
// the named environment variable's value (or empty if unset), leaving
// everything else literal - exactly the two substitutions launch_child()
// performs while building argv, no more.
func expandArgv(sh *Shell, argv []string) []string {
	out := make([]string, len(argv))
	for i, tok := range argv {
		switch {
		case tok == "$?":
			out[i] = strconv.Itoa(sh.LastExitCode)
		case len(tok) > 1 && tok[0] == '$':
			out[i] = os.Getenv(tok[1:])
		default:
			out[i] = tok
		}
	}
	return out
}

// stageStdin resolves a pipeline stage's stdin source: the previous
// stage's pipe read end if there is one, else a redirected file, else
// the shell's own stdin (the script file in non-interactive mode, the
// terminal otherwise - matching smash_setup()'s dup2-onto-fd-0 behavior
// for script mode).
func (sh *Shell) stageStdin(cmd *parser.Command, pipeRead *os.File) (io.Reader, *os.File, error) {
	if pipeRead != nil {
		return pipeRead, nil, nil
	}
	if cmd.RedirectIn != "" {
		f, err := os.OpenFile(cmd.RedirectIn, os.O_RDONLY, 0)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return sh.Stdin, nil, nil
}

func (sh *Shell) stageStdout(cmd *parser.Command, pipeWrite *os.File) (io.Writer, *os.File, error) {
	if pipeWrite != nil {
		return pipeWrite, nil, nil
	}
	if cmd.RedirectOut != "" {
		flags := os.O_WRONLY | os.O_CREATE
		if cmd.AppendOut {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(cmd.RedirectOut, flags, redirectPerm)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return sh.Stdout, nil, nil
}

func (sh *Shell) stageStderr(cmd *parser.Command) (io.Writer, *os.File, error) {
	if cmd.RedirectErr != "" {
		f, err := os.OpenFile(cmd.RedirectErr, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, redirectPerm)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return sh.Stderr, nil, nil
}

func closeIfFile(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// setTerminalForeground gives the controlling terminal's foreground
// process group to pgid, the Go-ecosystem equivalent of tcsetpgrp(3).
func (sh *Shell) setTerminalForeground(pgid int) error {
	return unix.IoctlSetPointerInt(sh.TermFd, unix.TIOCSPGRP, pgid)
}

// terminalForeground reads back the controlling terminal's current
// foreground process group, the equivalent of tcgetpgrp(3).
func (sh *Shell) terminalForeground() (int, error) {
	return unix.IoctlGetInt(sh.TermFd, unix.TIOCGPGRP)
}
