// Command hsearchd is the hybrid document search daemon and ingest tool: a
// single binary exposing both the Cobra CLI (init, ingest, status, reset,
// export, import, list-projects, search) and the `serve` subcommand that
// starts the MCP tool-call server.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/hsearch/cmd/hsearchd/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
