package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const (
	exitRuntime = 1
	exitUsage   = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func usageErr(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func runtimeErr(format string, args ...any) error {
	return &exitError{code: exitRuntime, err: fmt.Errorf(format, args...)}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "kasbridge",
		Usage: "Build and inspect Kaspa bridge redeem scripts",
		Flags: []cli.Flag{
			ConfigFileFlag,
			NetworkFlag,
			DataDirFlag,
			LogLevelFlag,
			EncoderFlag,
			MetadataURLFlag,
			HTTPTimeoutFlag,
		},
		Commands: []*cli.Command{
			generateCommand,
			parseCommand,
			addressCommand,
			feesCommand,
			pairsCommand,
			journalCommand,
			configCommand,
		},
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		// Exit codes are decided by run, never by the library.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}
