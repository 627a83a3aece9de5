// Command sproutctl inspects and maintains a Sprout Found client store
// from the shell: session state, the mission board and raw keys. It opens
// the same backend the server is configured for.
package main

import (
	"fmt"
	"os"
)

func main() {
	root, closeEnv := newRootCmd()
	err := root.Execute()
	if cerr := closeEnv(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
