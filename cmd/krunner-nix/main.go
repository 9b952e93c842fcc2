// krunner-nix searches the Nix package catalog from an application launcher.
// A daemon keeps the catalog indexed in memory; the launcher (or this CLI)
// queries it over a Unix socket and launches results with nix run / nix shell.
package main

import (
	"os"

	"github.com/pluiedev/krunner-nix/cmd/krunner-nix/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
