// Command gasdb answers reconciliation queries from the shell and serves
// them over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	code := exitCode(err)
	if !reported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		// Unmarked errors come from cobra itself: unknown commands and the like.
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			code = ExitCommandError
		}
	}
	os.Exit(code)
}
