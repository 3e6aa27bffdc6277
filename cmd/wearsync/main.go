// Command wearsync syncs Garmin Connect data into a database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/wearsync/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	code := cli.Execute(ctx, cli.Wiring{
		LoadConfig: loadConfig,
		Build:      build,
	})

	stop()
	os.Exit(code)
}
