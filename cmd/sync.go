package cmd

import (
	"fmt"

	"orgunit-sync/feature/orgunit"
	"orgunit-sync/feature/orgunit/store"

	"github.com/spf13/cobra"
)

var syncDryRun bool

// syncCmd reconciles the departments table against a snapshot file
var syncCmd = &cobra.Command{
	Use:   "sync <file>",
	Short: "Sync the departments table from an XML snapshot",
	Long: `Makes the departments table match the snapshot: records missing from the file are
deleted, changed descriptions are updated and new records are inserted, all in one
transaction. Nothing is written if any step fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.close()

		loc, err := rt.resolver.Resolve(args[0])
		if err != nil {
			return err
		}

		svc := orgunit.NewService(store.New(rt.db), rt.logger, nil)
		res, err := svc.Sync(cmd.Context(), loc, orgunit.SyncOptions{DryRun: syncDryRun})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n--- Sync Result ---")
		fmt.Fprintf(out, "Source:     %s\n", res.Source)
		fmt.Fprintf(out, "State:      %s\n", res.State)
		fmt.Fprintf(out, "Inserted:   %d\n", res.Inserted)
		fmt.Fprintf(out, "Updated:    %d\n", res.Updated)
		fmt.Fprintf(out, "Deleted:    %d\n", res.Deleted)
		fmt.Fprintf(out, "Unchanged:  %d\n", res.Unchanged)
		fmt.Fprintf(out, "Duration:   %s\n", res.Duration)
		if res.DryRun {
			fmt.Fprintln(out, "Dry run: no changes were written.")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute the changes without applying them")
	RootCmd.AddCommand(syncCmd)
}
