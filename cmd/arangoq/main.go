// Command arangoq compiles REST query objects to AQL and provisions
// ArangoDB databases.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/arangoq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
