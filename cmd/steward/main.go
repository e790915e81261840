// Package main is the entry point for the steward CLI.
//
// Usage:
//
//	steward [flags] <command> [args]
//
// Commands:
//
//	chat     - Interactive assistant session (default when no command is given)
//	mcp      - Serve the assistant as an MCP tool over stdio
//	ws       - Serve the assistant over WebSocket
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/m4xw311/steward/cmd/steward/commands"
	"github.com/m4xw311/steward/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.Message(err))
		os.Exit(1)
	}
}
