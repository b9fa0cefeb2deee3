package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/store/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadedConfig.Database.Driver != config.DriverPostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}
			ctx := cmd.Context()
			pool, err := postgres.Connect(ctx, loadedConfig.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if statusOnly, _ := cmd.Flags().GetBool("status"); !statusOnly {
				if err := postgres.Migrate(ctx, pool); err != nil {
					return err
				}
			}
			v, err := postgres.MigrationVersion(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "only print the applied version")
	return cmd
}
