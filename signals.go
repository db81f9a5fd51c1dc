package smash

import (
	"os"
	"os/signal"
	"syscall"
)

// jobControlSignals are the dispositions a job-controlling shell must
// manage itself rather than let the Go runtime's default handling apply:
// SIGINT/SIGQUIT/SIGTSTP/SIGTTIN/SIGTTOU must be ignored by the shell
// process itself (so ^C, ^Z, and background-terminal-access attempts hit
// the foreground job's process group instead), matching smash_setup()'s
// sigaction(SIG_IGN) block.
var jobControlSignals = []syscall.Signal{
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTSTP,
	syscall.SIGTTIN,
	syscall.SIGTTOU,
}

// ignoreJobControlSignals sets the shell's own disposition for the
// job-control signals to ignored.
func ignoreJobControlSignals() {
	sigs := make([]os.Signal, len(jobControlSignals))
	for i, s := range jobControlSignals {
		sigs[i] = s
	}
	signal.Ignore(sigs...)
}

// resetJobControlSignals restores default disposition for the job-control
// signals. Go cannot run code between fork and exec the way launch_child()
// does, so the launcher resets them before starting a pipeline's children
// and, in an interactive shell, ignores them again once every Start() has
// returned: a child inherits whatever disposition the parent holds at
// fork time, and POSIX exec() only resets *caught* dispositions back to
// default on its own - an *ignored* one survives the image replacement
// unless reset beforehand. See DESIGN.md.
func resetJobControlSignals() {
	sigs := make([]os.Signal, len(jobControlSignals))
	for i, s := range jobControlSignals {
		sigs[i] = s
	}
	signal.Reset(sigs...)
}
