package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/m96-chan/Keysmith/internal/build"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Run the firmware build without the editor",
		Long: `Run the configured build command from the project root (the first
directory above the keymap that holds the root marker) and stream its
output. The exit status is non-zero when the build fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			code, err := runBuild(ctx, newRunner(cfg), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if code != 0 {
				return fmt.Errorf("build failed with exit code %d", code)
			}
			return nil
		},
	}
}

// runBuild streams a build's output and returns its exit code. A build
// that ends without reporting one counts as -1.
func runBuild(ctx context.Context, r build.Runner, stdout, stderr io.Writer) (int, error) {
	events := make(chan build.Event, 64)
	done := make(chan int, 1)
	go func() {
		code := -1
		for ev := range events {
			switch ev.Kind {
			case build.KindStdout:
				fmt.Fprintln(stdout, ev.Line)
			case build.KindStderr:
				fmt.Fprintln(stderr, ev.Line)
			case build.KindExit:
				code = ev.Code
			}
		}
		done <- code
	}()

	err := r.Start(ctx, events)
	close(events)
	code := <-done
	if err != nil {
		return -1, err
	}
	fmt.Fprintln(stdout, build.StatusLine(code))
	return code, nil
}
