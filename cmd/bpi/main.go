package main

import (
	"os"

	"github.com/robroyhobbs/burgerprice/cmd/bpi/commands"
)

// main is the entry point for the Burger Price Index CLI
// ⭐ Unified CLI entry point: go run ./cmd/bpi [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
