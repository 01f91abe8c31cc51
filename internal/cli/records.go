package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollbook/internal/ledger"
)

// withApp opens the app for one command and closes it afterwards.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// parseKey parses a record key argument.
func parseKey(arg string) (int64, error) {
	key, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid key %q: must be an integer", arg))
	}
	return key, nil
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Name  string
	Topic string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record owned by the active identity",
		Long: `Add a record owned by the active identity.

The record gets the next serial number and an id of the form STU-<serial>.

Example:
  rollbook --as alice add --name "Ana Lima" --topic Math`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				r, err := a.ledger.Create(ctx, ledger.Fields{Name: opts.Name, Topic: opts.Topic})
				return a.finish(&r, err)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "student name (required)")
	cmd.Flags().StringVar(&opts.Topic, "topic", "", "topic (required)")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query...]",
		Short: "List records, optionally filtered",
		Long: `List records sorted by serial.

A query matches, case-insensitively, any substring of a record's name,
topic or id. Multiple words are joined with spaces.

Example:
  rollbook list
  rollbook list math`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return a.list(strings.Join(args, " "))
			})
		},
	}
}

// list prints the records matching query.
func (a *app) list(query string) error {
	a.query = query
	records := collect(a.ledger.Filter(query))
	if a.out.Format == "json" {
		return a.out.Success(records)
	}
	printRecords(a.out.Writer, records, a.styles)
	return nil
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <key>",
		Short:         "Show one record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return a.show(key)
			})
		},
	}
}

func (a *app) show(key int64) error {
	r, err := a.ledger.Get(key)
	if err != nil {
		return a.out.LedgerError(err)
	}
	if a.out.Format == "json" {
		return a.out.Success(r)
	}
	printRecord(a.out.Writer, r, a.styles)
	return nil
}

// NewRefCommand creates the ref command.
func NewRefCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ref <key>",
		Short: "Toggle a record's referenced flag",
		Long: `Toggle a record's referenced flag.

Any session may do this, with or without an identity. A referenced record
cannot be deleted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				r, err := a.ledger.ToggleReferenced(ctx, key)
				return a.finish(&r, err)
			})
		},
	}
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Name  string
	Topic string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <key>",
		Short: "Change the name or topic of your own record",
		Long: `Change the name or topic of a record owned by the active identity.

Only the flags given are changed. Serial, id and owner never change.

Example:
  rollbook --as alice edit 1718000000000 --topic Physics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			var patch ledger.Patch
			if cmd.Flags().Changed("name") {
				patch.Name = &opts.Name
			}
			if cmd.Flags().Changed("topic") {
				patch.Topic = &opts.Topic
			}
			return withApp(opts.RootOptions, cmd, func(ctx context.Context, a *app) error {
				r, err := a.ledger.Edit(ctx, key, patch)
				return a.finish(&r, err)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "new name")
	cmd.Flags().StringVar(&opts.Topic, "topic", "", "new topic")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete your own unreferenced record",
		Long: `Delete a record owned by the active identity.

Referenced records cannot be deleted, not even by their owner.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return a.finish(nil, a.ledger.Delete(ctx, key))
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Print the active identity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return a.whoami()
			})
		},
	}
}

func (a *app) whoami() error {
	if a.out.Format == "json" {
		return a.out.Success(map[string]string{
			"identity": a.ledger.Identity(),
			"session":  a.ledger.SessionToken(),
		})
	}
	fmt.Fprintln(a.out.Writer, a.styles.banner.Render(identityBanner(a.ledger.Identity())))
	return nil
}

// finish reports the outcome of a mutation. A save failure keeps the
// change in memory, so the table is still shown before the error.
func (a *app) finish(changed *ledger.Record, err error) error {
	switch {
	case err == nil:
		return a.mutated(changed)
	case ledger.CodeOf(err) == ledger.CodeIO:
		if a.out.Format != "json" {
			_ = a.mutated(changed)
		}
		return a.out.LedgerError(err)
	default:
		return a.out.LedgerError(err)
	}
}
