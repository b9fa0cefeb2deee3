package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seduc-am/planoacao/internal/admin"
	"github.com/seduc-am/planoacao/internal/application"
	"github.com/seduc-am/planoacao/internal/core"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage operator accounts"}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userBootstrapCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var (
		req   core.CreateUserRequest
		roles core.Roles
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Roles = roles
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				u, err := app.Service.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "display name")
	f.StringVar(&req.Email, "email", "", "department e-mail")
	f.StringVar(&req.Password, "password", "", "initial password")
	f.BoolVar(&roles.Admin, "admin", false, "administrator")
	f.BoolVar(&roles.Assessor, "assessor", false, "advisor")
	f.BoolVar(&roles.PEscola, "p-escola", false, "school staff")
	f.BoolVar(&roles.Coordenador, "coordenador", false, "coordinator")
	f.BoolVar(&roles.CoordNIG, "coord-nig", false, "NIG coordinator")
	f.BoolVar(&roles.Secretaria, "secretaria", false, "secretariat")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userBootstrapCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first administrator unless one exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				u, created, err := admin.Bootstrap(ctx, app.Service, name, email, password)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "created administrator %d <%s>\n", u.ID, u.Email)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "administrator %d <%s> already exists\n", u.ID, u.Email)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrador", "display name")
	cmd.Flags().StringVar(&email, "email", "", "department e-mail")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
