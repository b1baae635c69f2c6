// Command biaslens runs the text bias classification service: the HTTP API
// (serve) and the queued-job worker (work).
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
