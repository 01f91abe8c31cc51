// Command rollbook manages a shared student roll whose records can only be
// changed by the identity that created them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/rollbook/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
