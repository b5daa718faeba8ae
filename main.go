package main

import (
	"fmt"
	"os"

	"signvec/cmd"
)

func main() {
	// Pass version info to cmd package
	cmd.Version = Version
	cmd.GitCommit = GitCommit
	cmd.BuildTime = BuildTime

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
