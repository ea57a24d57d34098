// Command monitor-preview opens a live-reloading local window that
// plays a single chart file through the same playback.Scene the
// spectator relay drives per player, useful for auditioning a chart
// without a running phira room.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
