package cmd

import (
	"fmt"

	"orgunit-sync/feature/orgunit"
	"orgunit-sync/feature/orgunit/store"

	"github.com/spf13/cobra"
)

// exportCmd writes the departments table to a snapshot file
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the departments table to an XML snapshot",
	Long: `Reads every record of the departments table and writes it as an XML snapshot,
replacing the file. Without an argument the configured default path is used.
Use s3://<key> to write to the configured storage bucket.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.close()

		ref := rt.cfg.Snapshot.DefaultPath
		if len(args) == 1 {
			ref = args[0]
		}
		loc, err := rt.resolver.Resolve(ref)
		if err != nil {
			return err
		}

		svc := orgunit.NewService(store.New(rt.db), rt.logger, nil)
		count, err := svc.Export(cmd.Context(), loc)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", count, loc)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
}
