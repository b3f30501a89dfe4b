// Command mwctl inspects the mount wrapper: its run log, its resolved
// configuration, and the processes it stands in front of.
package main

import (
	"os"

	"github.com/andrelucas/mountwrapper/cmd/mwctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
