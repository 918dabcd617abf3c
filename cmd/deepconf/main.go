// cmd/deepconf/main.go
package main

import (
	cmd "github.com/hrbzhq/deepconf/internal/cli"
)

// Populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the deepconf CLI application by delegating to the
// cobra root command defined in the deepconf package.
func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
