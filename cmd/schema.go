package cmd

import (
	"fmt"
	"strings"

	"orgunit-sync/feature/orgunit/store"

	"github.com/spf13/cobra"
)

var schemaMigrate bool

// schemaCmd checks the departments table layout
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Verify the departments table",
	Long:  `Checks that the departments table has every column the sync needs. With --migrate the table is created or migrated first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer rt.close()

		st := store.New(rt.db)
		if schemaMigrate {
			if err := st.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			rt.logger.Info("Schema migrated")
		}

		missing, err := st.VerifySchema(cmd.Context())
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("departments table is missing columns: %s", strings.Join(missing, ", "))
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Schema OK")
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaMigrate, "migrate", false, "create or migrate the table before verifying")
	RootCmd.AddCommand(schemaCmd)
}
