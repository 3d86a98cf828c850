// Command habitgrid is a personal habit tracker: define daily routines,
// mark them complete per calendar day, and view a year-long completion
// heatmap. State lives in local JSON blobs and optionally syncs with a
// remote endpoint.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
