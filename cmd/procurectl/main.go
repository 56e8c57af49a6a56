// Command procurectl is the operator CLI: schema migrations, demo data,
// one-off sweeps and a dashboard summary.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
