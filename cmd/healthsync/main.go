// Command healthsync plans and logs meals, exercise, sleep and water.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/healthsync/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
