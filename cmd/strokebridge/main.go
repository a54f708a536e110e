// Command strokebridge runs stroke interpolation scripts.
package main

import (
	"fmt"
	"os"

	"github.com/wippyai/strokebridge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
