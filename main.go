// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/scribe/cmd"
)

// main is the entry point for the scribe CLI. cmd/scribe builds the same binary.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
}
