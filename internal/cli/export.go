package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rollbook/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Records int    `json:"records"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records to a JSON or YAML file",
		Long: `Write all records, in insertion order, to a snapshot file.

The format follows the file extension: .json, .yaml or .yml.

Example:
  rollbook export --out roll.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := store.FormatForPath(opts.Out)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --out", err)
			}
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				return a.export(opts.Out, format)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (a *app) export(path string, format store.ExportFormat) error {
	records := a.ledger.Records()
	data, err := store.Export(records, format)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	a.log.Info("records exported", "path", path, "records", len(records))

	if a.out.Format == "json" {
		return a.out.Success(ExportResult{Path: path, Format: string(format), Records: len(records)})
	}
	fmt.Fprintf(a.out.Writer, "Exported %d records to %s\n", len(records), path)
	return nil
}
