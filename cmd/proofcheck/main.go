// Command proofcheck verifies canonical proof artifacts produced by
// simulation engines.
//
// Usage:
//
//	proofcheck <artifact>
//	proofcheck batch <path>...
//	proofcheck history --db <ledger>
//	proofcheck schema [--engine jsonschema|cue]
//	proofcheck test <scenarios-dir>
package main

import (
	"os"

	"github.com/roach88/proofcheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
