// Command planoctl runs operator tasks against the configured store:
// migrations, the first administrator, and offline plan imports and exports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seduc-am/planoacao/internal/application"
	"github.com/seduc-am/planoacao/internal/config"
	"github.com/seduc-am/planoacao/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "planoctl",
	Short:         "Action-plan administration CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Overload(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		loadedConfig = cfg
		return nil
	},
}

var loadedConfig *config.Config

func main() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(plansCmd())
	rootCmd.AddCommand(coordCmd())
	rootCmd.AddCommand(schoolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp opens the configured store and service for one command.
func withApp(ctx context.Context, fn func(ctx context.Context, app *application.App) error) error {
	app, err := application.Open(ctx, loadedConfig)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
