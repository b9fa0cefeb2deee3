package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seduc-am/planoacao/internal/application"
)

func coordCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "coord", Short: "Manage jurisdiction rows"}
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Load gestao;coordenadoria;municipio;coordenador;assessor rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				data, err := readUpload(app, args[0])
				if err != nil {
					return err
				}
				n, err := app.Service.ImportCoordinators(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows\n", n)
				return nil
			})
		},
	})
	return cmd
}

func schoolsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "schools", Short: "Manage school reference data"}
	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Load sigeam;escola;municipio;distrito rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				data, err := readUpload(app, args[0])
				if err != nil {
					return err
				}
				n, err := app.Service.ImportSchools(ctx, data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d schools\n", n)
				return nil
			})
		},
	})
	return cmd
}
