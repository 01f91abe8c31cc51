package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollbook/internal/ledger"
)

const shellHelp = `Commands:
  id <name>                          set the active identity
  whoami                             show the active identity
  add <name> <topic>                 add a record (quote values with spaces)
  list [query...]                    list records, optionally filtered
  show <key>                         show one record
  ref <key>                          toggle the referenced flag
  edit <key> [name=<v>] [topic=<v>]  change your own record
  delete <key>                       delete your own unreferenced record
  clear [--yes]                      remove every record
  help                               show this help
  quit                               leave the shell`

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps its identity",
		Long: `Start an interactive session.

The identity set with 'id <name>' (or --as) lasts until the shell exits and
is never written to disk. Commands are read one per line from stdin, so the
shell can also be scripted:

  printf 'id alice\nadd "Ana Lima" Math\nlist\n' | rollbook shell

` + shellHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app) error {
				return a.runShell(ctx, cmd.InOrStdin())
			})
		},
	}
}

// runShell reads commands from in until EOF or quit. Command errors are
// reported and the loop continues.
func (a *app) runShell(ctx context.Context, in io.Reader) error {
	interactive := isTerminal(in)
	sc := bufio.NewScanner(in)
	prompt := func() {
		if interactive {
			fmt.Fprint(a.out.Writer, "rollbook> ")
		}
	}

	if interactive {
		fmt.Fprintln(a.out.Writer, "Type 'help' for commands, 'quit' to leave.")
	}
	a.log.Debug("shell started", "session", a.ledger.SessionToken(), "interactive", interactive)

	prompt()
	for sc.Scan() {
		args, err := splitArgs(sc.Text())
		if err != nil {
			_ = a.out.Error("USAGE", err.Error(), nil)
			prompt()
			continue
		}
		if len(args) == 0 {
			prompt()
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return nil
		}
		if err := a.shellCommand(ctx, args, sc); err != nil {
			a.log.Debug("shell command failed", "command", args[0], "error", err)
			a.out.VerboseLog("%s failed: %v", args[0], err)
		}
		prompt()
	}
	return sc.Err()
}

// errUsage marks a command line the shell could not interpret. It has
// already been reported.
var errUsage = errors.New("usage")

func (a *app) usage(format string, args ...any) error {
	_ = a.out.Error("USAGE", fmt.Sprintf(format, args...), nil)
	return errUsage
}

// shellCommand runs one parsed command line.
func (a *app) shellCommand(ctx context.Context, args []string, sc *bufio.Scanner) error {
	name, rest := args[0], args[1:]

	switch name {
	case "help":
		fmt.Fprintln(a.out.Writer, shellHelp)
		return nil

	case "id":
		if len(rest) == 0 {
			return a.usage("id <name>")
		}
		if err := a.ledger.SetIdentity(strings.Join(rest, " ")); err != nil {
			return a.out.LedgerError(err)
		}
		return a.whoami()

	case "whoami":
		return a.whoami()

	case "add":
		if len(rest) != 2 {
			return a.usage("add <name> <topic>")
		}
		r, err := a.ledger.Create(ctx, ledger.Fields{Name: rest[0], Topic: rest[1]})
		return a.finish(&r, err)

	case "list":
		return a.list(strings.Join(rest, " "))

	case "show":
		key, err := a.shellKey(name, rest)
		if err != nil {
			return err
		}
		return a.show(key)

	case "ref":
		key, err := a.shellKey(name, rest)
		if err != nil {
			return err
		}
		r, err := a.ledger.ToggleReferenced(ctx, key)
		return a.finish(&r, err)

	case "edit":
		if len(rest) == 0 {
			return a.usage("edit <key> [name=<v>] [topic=<v>]")
		}
		key, err := a.shellKey(name, rest[:1])
		if err != nil {
			return err
		}
		patch, err := a.parsePatch(rest[1:])
		if err != nil {
			return err
		}
		r, err := a.ledger.Edit(ctx, key, patch)
		return a.finish(&r, err)

	case "delete":
		key, err := a.shellKey(name, rest)
		if err != nil {
			return err
		}
		return a.finish(nil, a.ledger.Delete(ctx, key))

	case "clear":
		if len(rest) == 1 && (rest[0] == "--yes" || rest[0] == "-y") {
			return a.clear(ctx)
		}
		if len(rest) != 0 {
			return a.usage("clear [--yes]")
		}
		fmt.Fprintf(a.out.Writer, "Remove all %d records? [y/N] ", a.ledger.Len())
		if !sc.Scan() {
			fmt.Fprintln(a.out.Writer)
			return a.cancelled()
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "y", "yes":
			return a.clear(ctx)
		default:
			return a.cancelled()
		}

	default:
		return a.usage("unknown command %q (try 'help')", name)
	}
}

// shellKey parses the single key argument of cmd.
func (a *app) shellKey(cmd string, rest []string) (int64, error) {
	if len(rest) != 1 {
		return 0, a.usage("%s <key>", cmd)
	}
	key, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return 0, a.usage("invalid key %q: must be an integer", rest[0])
	}
	return key, nil
}

// parsePatch reads name=<v> and topic=<v> pairs.
func (a *app) parsePatch(pairs []string) (ledger.Patch, error) {
	var p ledger.Patch
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			return p, a.usage("expected field=value, got %q", pair)
		}
		switch field {
		case "name":
			p.Name = &value
		case "topic":
			p.Topic = &value
		default:
			return p, a.usage("unknown field %q (editable: name, topic)", field)
		}
	}
	return p, nil
}

// splitArgs splits a command line on whitespace. Single or double quotes
// group words, and may appear mid-word (name="Ana Lima").
func splitArgs(line string) ([]string, error) {
	var (
		args   []string
		cur    strings.Builder
		inWord bool
		quote  rune
	)
	for _, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inWord = true
		case c == ' ' || c == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(c)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
