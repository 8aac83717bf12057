// Command fieldsync is the field-sales store and sync CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/fieldsync/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report store and sync failures themselves; flag, argument
	// and path errors still need printing.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported() {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
