package smash

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"
)

// builtinFunc is a builtin's handler: the full trimmed, comment-stripped
// input line, dispatched before the parser ever sees it. Matches
// builtin.c's builtin_t{command, callback} pairing, generalized from a
// C function pointer to a Go closure keyed by exact first-token match.
type builtinFunc func(sh *Shell, line string) error

var builtinTable = map[string]builtinFunc{
	"exit": builtinExit,
	"cd":   builtinCd,
	"pwd":  builtinPwd,
	"echo": builtinEcho,
	"jobs": builtinJobs,
	"fg":   builtinFg,
	"bg":   builtinBg,
	"kill": builtinKill,
	"#":    builtinComment,
}

// lookupBuiltin dispatches on the exact first whitespace-delimited token
// of line, the same exact-name match is_builtin() makes over the
// builtins[] array in builtin.c, done here as a map lookup.
func lookupBuiltin(line string) (builtinFunc, bool) {
	name := line
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name = line[:i]
	}
	fn, ok := builtinTable[name]
	return fn, ok
}

func builtinExit(sh *Shell, line string) error {
	sh.Shutdown()
	os.Exit(0)
	return nil
}

// builtinCd changes the shell's working directory. No argument defaults
// to $HOME (or os/user.Current's home directory when $HOME is empty); an
// argument of "~" or one starting with "~/" has the "~" replaced by
// os.UserHomeDir, the Go-idiomatic replacement for builtin_cd's
// EXTRA_CREDIT glob(GLOB_TILDE) call - see DESIGN.md. The "~user" form is
// not expanded.
func builtinCd(sh *Shell, line string) error {
	arg := strings.TrimSpace(strings.TrimPrefix(line, "cd"))
	if arg == "" {
		home := os.Getenv("HOME")
		if home == "" {
			if u, err := user.Current(); err == nil {
				home = u.HomeDir
			}
		}
		return os.Chdir(home)
	}
	if strings.HasPrefix(arg, "$") {
		arg = os.Getenv(arg[1:])
	} else if arg == "~" || strings.HasPrefix(arg, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		arg = home + strings.TrimPrefix(arg, "~")
	}
	return os.Chdir(arg)
}

func builtinPwd(sh *Shell, line string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.Stdout, cwd)
	return nil
}

// builtinEcho tokenizes its arguments on whitespace, expands "$?" to the
// decimal last exit code and any other "$NAME" token to the named
// environment variable's value (empty if unset), and writes each token
// followed by a space - matching builtin_echo's strtok_r loop and its
// dprintf(" ") call after every token, including the last, with no quote
// handling (spec.md's grammar has none to strip).
func builtinEcho(sh *Shell, line string) error {
	fields := strings.Fields(line)
	args := fields[1:]
	for i, a := range args {
		switch {
		case a == "$?":
			args[i] = strconv.Itoa(sh.LastExitCode)
		case strings.HasPrefix(a, "$"):
			args[i] = os.Getenv(a[1:])
		}
	}
	for _, a := range args {
		fmt.Fprint(sh.Stdout, a, " ")
	}
	fmt.Fprintln(sh.Stdout)
	return nil
}

func builtinJobs(sh *Shell, line string) error {
	sh.Jobs.List(sh.Stdout)
	return nil
}

// builtinFg expects "fg <jobid>", matching builtin_fg's required prefix
// and strtol parse.
func builtinFg(sh *Shell, line string) error {
	id, err := parseJobArg(line, "fg")
	if err != nil {
		return err
	}
	job, ok := sh.Jobs.Lookup(id)
	if !ok {
		return fmt.Errorf("fg: no such job: %d", id)
	}
	return sh.RunInForeground(job, true)
}

// builtinBg expects "bg <jobid>", matching builtin_bg.
func builtinBg(sh *Shell, line string) error {
	id, err := parseJobArg(line, "bg")
	if err != nil {
		return err
	}
	job, ok := sh.Jobs.Lookup(id)
	if !ok {
		return fmt.Errorf("bg: no such job: %d", id)
	}
	return sh.RunInBackground(job, true)
}

func parseJobArg(line, name string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <jobid>", name)
	}
	return strconv.Atoi(fields[1])
}

// builtinKill expects "kill -SIGNUM JOBID" - the signal number before
// the job id, matching builtin_kill's two strtol calls in that order.
// The target job must be Running or Suspended.
func builtinKill(sh *Shell, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 || !strings.HasPrefix(fields[1], "-") {
		return fmt.Errorf("usage: kill -SIGNUM JOBID")
	}
	signum, err := strconv.Atoi(fields[1][1:])
	if err != nil {
		return fmt.Errorf("kill: invalid signal: %s", fields[1])
	}
	id, err := strconv.Atoi(fields[2])
	if err != nil {
		return fmt.Errorf("kill: invalid job id: %s", fields[2])
	}
	job, ok := sh.Jobs.Lookup(id)
	if !ok {
		return fmt.Errorf("kill: no such job: %d", id)
	}
	if !(job.Status == StatusRunning || job.Status == StatusSuspended) {
		return fmt.Errorf("kill: job %d is not running or suspended", id)
	}
	return syscall.Kill(-job.Pgid, syscall.Signal(signum))
}

// builtinComment is a deliberate no-op for a line whose first token is
// exactly "#", mirroring builtin.c's registered "#" entry. Lines read by
// Run never reach it: the main loop strips every "#..." comment before
// builtin dispatch, so such a line is already empty.
func builtinComment(sh *Shell, line string) error {
	return nil
}
