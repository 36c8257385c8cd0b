// Command crackhash recovers hash preimages by brute force, dictionary or mask
// search, or serves the same searches over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"crackhash/internal/attack"
)

const (
	exitFound       = 0
	exitFailed      = 1
	exitInterrupted = 130
)

// errNotFound is returned by the crack commands when the domain was exhausted.
var errNotFound = errors.New("exhausted: no candidate matches")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "crackhash:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitFound
	case errors.Is(err, attack.ErrInterrupted):
		return exitInterrupted
	default:
		return exitFailed
	}
}
