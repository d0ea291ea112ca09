// Command generator produces today's report for one locality and publishes
// it as noticias_<id>.json.
//
// Usage:
//
//	generator <locality-id>
//	generator --list
//
// Exit codes: 0 success, 1 unexpected failure, 2 usage or configuration
// error, 3 unknown locality, 4 upstream failure, 5 malformed response.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "generator <locality-id>",
		Short: "Generate and publish the daily report of a locality",
		Args: func(_ *cobra.Command, args []string) error {
			if list {
				return nil
			}
			if len(args) != 1 {
				return &usageError{fmt.Errorf("expected exactly one locality id, got %d", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listLocalities(stdout)
			}
			return generate(cmd.Context(), args[0], stdout)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})
	cmd.Flags().BoolVar(&list, "list", false, "print the served locality ids and exit")

	return cmd
}
