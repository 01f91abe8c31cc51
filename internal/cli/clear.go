package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record",
		Long: `Remove every record, whoever owns it and whether or not it is referenced.

On a terminal you are asked to confirm. Otherwise --yes is required.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				if !opts.Yes {
					ok, err := confirmClear(cmd.InOrStdin(), cmd.OutOrStdout(), a.ledger.Len())
					if err != nil {
						return WrapExitError(ExitCommandError, "confirmation failed", err)
					}
					if !ok {
						return a.cancelled()
					}
				}
				return a.clear(ctx)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func (a *app) clear(ctx context.Context) error {
	return a.finish(nil, a.ledger.ClearAll(ctx))
}

func (a *app) cancelled() error {
	if a.out.Format == "json" {
		return a.out.Success(map[string]bool{"cleared": false})
	}
	fmt.Fprintln(a.out.Writer, "Cancelled.")
	return nil
}

// errNotInteractive is returned when confirmation is needed but stdin is
// not a terminal.
var errNotInteractive = errors.New("stdin is not a terminal; pass --yes to confirm")

// confirmClear asks the user to confirm clearing n records with a huh
// confirm prompt. It fails when in is not a terminal.
func confirmClear(in io.Reader, out io.Writer, n int) (bool, error) {
	if !isTerminal(in) {
		return false, errNotInteractive
	}
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Remove all %d records?", n)).
			Description("This cannot be undone. Referenced records are removed too.").
			Affirmative("Remove").
			Negative("Keep").
			Value(&ok),
	)).WithInput(in).WithOutput(out)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
