// Package cli implements the gatewayd command-line surface: serve the HTTP
// gateway, run database migrations, or drain the task queue once.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level gatewayd command.
var RootCmd = &cobra.Command{
	Use:   "gatewayd",
	Short: "neurobridge conversational gateway",
	Long:  "gatewayd serves the HTTP+SSE conversational gateway: signup/login, profile, completion streaming, emotion logging, and task draining.",
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(migrateCmd)
	RootCmd.AddCommand(runTasksCmd)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
