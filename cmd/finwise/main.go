// Command finwise is a terminal client for the financial assistant. It keeps
// conversations in memory and talks to the configured model and graph
// directly, without the API server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
