// Command sdramsim simulates an SDRAM controller driven by a bus test
// program.
package main

import (
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	cmd := newRootCommand(os.Stdout)

	err := cmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
