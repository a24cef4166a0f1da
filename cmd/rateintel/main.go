// Command rateintel runs the competitive rate intelligence pipeline:
// competitor data refreshes, market analysis, recommendation batches and
// suggestion approval.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
