// Command mountwrapper stands in for the real mount helper. It records the
// invocation to the run log, executes the real binary with the original
// arguments and environment, and reproduces the child's exit status.
package main

import (
	"fmt"
	"os"

	"github.com/andrelucas/mountwrapper/internal/config"
	"github.com/andrelucas/mountwrapper/internal/wrapper"
)

func main() {
	os.Exit(run(os.Args, os.Environ()))
}

func run(argv, environ []string) int {
	cfg := config.Resolve()

	code, err := wrapper.New(cfg, argv, environ).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s (wrapper): %v\n", wrapper.Progname(argv), err)
		return 1
	}
	return code
}
