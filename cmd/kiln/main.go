// Command kiln inspects and builds trees of kiln entity documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/kilnfs/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		// Errors from cobra itself: unknown commands, bad flags.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
}
