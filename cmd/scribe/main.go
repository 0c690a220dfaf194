// File: cmd/scribe/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/scribe/cmd"
)

func main() {
	// Ctrl+C ends a recording; the command still writes its script.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run executes the command line in os.Args and returns the exit code.
func run(ctx context.Context) int {
	if err := cmd.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
