package smash

import (
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"smash/config"
	"smash/parser"
)

// Shell holds all of the process-wide state a single smash instance
// owns: whether it's talking to a controlling terminal, its own process
// group, its saved terminal mode (restored each time it reclaims the
// terminal from a foreground job), the job table, and
// the last exit code $? expands to. Replaces gosh's GlobalState
// singleton with a plain struct threaded explicitly through method
// receivers - idiomatic Go, no package-level mutable state.
type Shell struct {
	Interactive  bool
	Debug        int
	ReportRusage bool

	ShellPgid int
	TermFd    int
	TermState *term.State

	LastExitCode int
	Jobs         *JobTable
	Session      *Session

	promptString string
	scriptPath   string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewShell builds a Shell from parsed CLI flags and loaded config. It
// does not touch the terminal; call Setup for that.
func NewShell(cfg *config.Config, debug int, rusageFlag bool, scriptPath string) *Shell {
	return &Shell{
		Debug:        debug,
		ReportRusage: rusageFlag || cfg.ReportRusage,
		Jobs:         NewJobTable(),
		Session:      NewSession(),
		promptString: cfg.Prompt,
		scriptPath:   scriptPath,
		TermFd:       0,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// debugf writes a DEBUG: trace line to stderr when the debug counter is
// nonzero, the Go-idiom equivalent of jobs.c/smash.c's ENTER/EXIT
// DEBUG() macro calls.
func (sh *Shell) debugf(format string, args ...any) {
	if sh.Debug == 0 {
		return
	}
	log.SetFlags(0)
	log.SetOutput(sh.Stderr)
	log.Printf("DEBUG: "+format, args...)
}

// errorf writes an "ERROR: <message>" line to stderr, matching debug.h's
// unconditional ERROR() macro.
func (sh *Shell) errorf(format string, args ...any) {
	log.SetFlags(0)
	log.SetOutput(sh.Stderr)
	log.Printf("ERROR: "+format, args...)
}

// fatal reports err, runs the shutdown sequence (cancel and reap every
// live job), and terminates the shell with status 1. Reserved for
// OS failures during launch or terminal handoff, where partial recovery
// would leave the terminal in an inconsistent state (spec.md design
// note, §9).
func (sh *Shell) fatal(err error) {
	sh.errorf("%v", err)
	sh.Shutdown()
	os.Exit(1)
}

// Setup installs the shell's signal posture, claims the controlling
// terminal's foreground process group (interactive mode only), and opens
// the script file (non-interactive mode). Mirrors smash_setup() in
// smash.c.
func (sh *Shell) Setup() error {
	if sh.scriptPath != "" {
		f, err := os.Open(sh.scriptPath)
		if err != nil {
			return err
		}
		sh.Stdin = f
		sh.Interactive = false
	} else {
		sh.Interactive = term.IsTerminal(sh.TermFd)
	}

	if !sh.Interactive {
		sh.debugf("smash running non-interactively")
		return nil
	}

	pgid := os.Getpid()
	for {
		fg, err := sh.terminalForeground()
		if err != nil {
			return err
		}
		if fg == syscall.Getpgrp() {
			break
		}
		syscall.Kill(-syscall.Getpgrp(), syscall.SIGTTIN)
	}

	ignoreJobControlSignals()

	if err := syscall.Setpgid(pgid, pgid); err != nil {
		return err
	}
	sh.ShellPgid = pgid
	if err := sh.setTerminalForeground(sh.ShellPgid); err != nil {
		return err
	}
	state, err := term.GetState(sh.TermFd)
	if err != nil {
		return err
	}
	sh.TermState = state

	sh.debugf("session %s started by user %s (uid %d)", sh.Session.SessionID, sh.Session.UserName, sh.Session.UserID)
	return nil
}

// Run is the main loop: §4.G of spec.md, nine steps per iteration. It
// returns the process exit code.
func (sh *Shell) Run() int {
	reader := bufio.NewReader(sh.Stdin)
	for {
		if sh.Interactive {
			sh.reapNonBlocking()
			io.WriteString(sh.Stdout, sh.Prompt())
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}

		if sh.Interactive {
			sh.reapNonBlocking()
		}

		line = stripComment(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		if builtin, ok := lookupBuiltin(line); ok {
			if err := builtin(sh, line); err != nil {
				sh.errorf("%v", err)
			}
			continue
		}

		pipeline, ok := parser.Parse(line)
		if !ok {
			continue
		}
		sh.execPipeline(pipeline)
	}
	return sh.LastExitCode
}

// stripComment removes a trailing "#..." comment the way the main loop
// does before builtin dispatch and parsing.
func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return strings.TrimSpace(line[:i])
	}
	return line
}

// execPipeline creates a job for pipeline, launches it, and hands it to
// the foreground or background controller depending on the parsed
// background flag and whether the shell is interactive at all. Mirrors
// exec_job() in jobs.c.
func (sh *Shell) execPipeline(pipeline *parser.Pipeline) {
	job := sh.Jobs.Create(pipeline)
	sh.Jobs.Insert(job)

	if err := sh.Launch(job); err != nil {
		sh.errorf("%v", err)
		job.Status = StatusAborted
		return
	}

	if !sh.Interactive {
		sh.waitJob(job)
		sh.LastExitCode = job.ExitCode
		return
	}

	if pipeline.Background {
		sh.RunInBackground(job, false)
		io.WriteString(sh.Stdout, formatJobStarted(job))
		return
	}
	sh.RunInForeground(job, false)
}

func formatJobStarted(j *Job) string {
	return "[" + strconv.Itoa(j.ID) + "] " + strconv.Itoa(j.Pgid) + "\n"
}

// Shutdown cancels every still-live job, waits for all of them to be
// reaped, and releases the script file handle. Mirrors smash_atexit()
// in smash.c.
func (sh *Shell) Shutdown() {
	sh.Jobs.CancelAll()
	sh.Jobs.WaitForAll()
	if f, ok := sh.Stdin.(*os.File); ok && f != os.Stdin {
		f.Close()
	}
}
