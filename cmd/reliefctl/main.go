// reliefctl runs flyer investigations and inspects case files from the
// command line.
//
// Usage:
//
//	reliefctl investigate <image> [--json]
//	reliefctl case show <case-id>
//	reliefctl migrate
//	reliefctl mcp
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
