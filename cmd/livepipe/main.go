// Command livepipe evaluates a jq pipeline program over a live input while the
// program is being edited.
//
// Usage:
//
//	livepipe [flags] <command> [args]
//
// Commands:
//
//	serve  - serve the input and evaluation sessions over HTTP
//	repl   - edit the program line by line in the terminal
//	eval   - evaluate a program once over the whole input
package main

import (
	"fmt"
	"os"

	"github.com/askiada/go-livepipe/cmd/livepipe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
