package main

import (
	"os"

	"github.com/umebot/insight/cmd/insight/commands"
)

// main is the entry point for the insight CLI
// ⭐ unified entry point: go run ./cmd/insight [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
