// Command pkgtree indexes Go modules and matches identifiers against
// registered namespace sets, from the command line or as an MCP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/dshills/pkgtree-mcp/internal/storage"
)

var (
	// Version is the semantic version (set via -ldflags)
	Version = "dev"
	// BuildTime is the build timestamp (set via -ldflags)
	BuildTime = "unknown"
)

func versionString() string {
	return fmt.Sprintf("%s (built: %s, sqlite: %s/%s)", Version, BuildTime, storage.BuildMode, storage.DriverName)
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
