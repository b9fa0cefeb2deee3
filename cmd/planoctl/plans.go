package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seduc-am/planoacao/internal/application"
	"github.com/seduc-am/planoacao/internal/core"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "plans", Short: "Import, update and export action plans"}
	cmd.AddCommand(plansImportCmd())
	cmd.AddCommand(plansUpdateCmd())
	cmd.AddCommand(plansExportCmd())
	return cmd
}

// readUpload reads and validates a file the way the HTTP upload does.
func readUpload(app *application.App, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateUpload(filepath.Base(path), data, app.Service.MaxFileSize()); err != nil {
		return nil, err
	}
	return data, nil
}

func plansImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Insert plans from a header-mapped CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				data, err := readUpload(app, args[0])
				if err != nil {
					return err
				}
				res, err := app.Service.ImportPlans(ctx, data)
				if err != nil {
					return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, skipped %d empty rows, %d batches\n", res.Inserted, res.Skipped, res.Batches)
				return nil
			})
		},
	}
}

func plansUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update FILE",
		Short: "Upsert plans by id from an 18-column data export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				data, err := readUpload(app, args[0])
				if err != nil {
					return err
				}
				if dryRun {
					preview, err := app.Service.PreviewUpdate(ctx, data)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), preview.Summary.String())
					return nil
				}
				res, err := app.Service.UpdatePlans(ctx, data)
				if err != nil {
					return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "upserted %d, skipped %d rows without id\n", res.Upserted, res.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().Bool("dry-run", false, "report what would change without writing")
	return cmd
}

func plansExportCmd() *cobra.Command {
	var (
		data   bool
		year   int
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export plans as the import template or as update-ready data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *application.App) error {
				var (
					e   core.Export
					err error
				)
				if data {
					e, err = app.Service.ExportData(ctx, core.PlanFilter{Year: year})
				} else {
					e, err = app.Service.ExportTemplate(ctx)
				}
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return e.Write(w, core.ParseExportFormat(format))
			})
		},
	}
	cmd.Flags().BoolVar(&data, "data", false, "export with ids, in update-mode column order")
	cmd.Flags().IntVar(&year, "ano", 0, "only plans of this year (with --data)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	return cmd
}
