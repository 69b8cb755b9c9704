package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrison/searchex/internal/cmd"
)

// Exit codes: 0 = matches found, 1 = clean run without matches,
// 2 = the run itself failed.
func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrNoMatches) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
