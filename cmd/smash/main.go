// Command smash is a POSIX-style job-controlling shell.
package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"smash"
	"smash/config"
)

func main() {
	log.SetFlags(0)

	var debug int
	var rusage bool
	pflag.CountVarP(&debug, "debug", "d", "enable debug tracing (repeatable)")
	pflag.BoolVarP(&rusage, "times", "t", false, "report resource usage after each job")
	pflag.Parse()

	var scriptPath string
	if args := pflag.Args(); len(args) > 0 {
		scriptPath = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	sh := smash.NewShell(cfg, debug, rusage, scriptPath)
	if err := sh.Setup(); err != nil {
		log.Printf("ERROR: smash_setup: %v", err)
		os.Exit(1)
	}

	code := sh.Run()
	sh.Shutdown()
	os.Exit(code)
}
