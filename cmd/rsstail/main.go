// ABOUTME: Entry point for the rsstail CLI
// ABOUTME: Executes the root command and reports fatal errors on stderr

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("rsstail: %v", err))
		os.Exit(1)
	}
}
