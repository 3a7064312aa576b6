package cmd

import (
	"errors"
	"fmt"
	"os"

	"orgunit-sync/core/logger"
	"orgunit-sync/feature/orgunit/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit statuses reported by Execute.
const (
	exitFailure     = 1
	exitBadSnapshot = 2
	exitUnreachable = 3
)

// RootCmd is the orgunit-sync entry point; subcommands attach in their init.
var RootCmd = &cobra.Command{
	Use:   "orgunit-sync",
	Short: "Reconcile the departments table with XML snapshots",
	Long: `orgunit-sync keeps the departments table in step with XML snapshots.
export writes the table out as a snapshot. sync applies a snapshot back,
deleting, updating and inserting rows inside one transaction.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs RootCmd and exits with a status derived from the error kind.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}

	l, logErr := logger.New(&logger.Config{Level: "error", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
	} else {
		l.Error("Command failed", zap.Error(err))
		_ = l.Sync()
	}
	os.Exit(exitCode(err))
}

// exitCode separates bad input from an unreachable database so scripts can
// tell a retryable failure from one that needs a corrected snapshot.
func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrFormat), errors.Is(err, models.ErrDuplicateKey):
		return exitBadSnapshot
	case errors.Is(err, models.ErrConnectivity):
		return exitUnreachable
	default:
		return exitFailure
	}
}
