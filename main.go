package main

import (
	"os"

	"github.com/peakobs/nightq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
