package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/watch"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate when sources or templates change",
		Long: `Run a generation round, then watch the source paths and the template root
and run a new round after every batch of changes.

Examples:
  # Watch with the default 100ms debounce
  declgen watch

  # Wait longer for editors that save in several steps
  declgen watch --delay 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			a.regenerate(ctx, out, nil)

			watcher, err := watch.NewFileWatcher(watch.Options{
				Roots:   a.cfg.WatchPaths(),
				Ignored: []string{"*.swp", "*.swo", "*~", "*.tmp", ".DS_Store"},
				Delay:   delay,
			}, a.log.Named("watch"), func(files []string) error {
				if changed := a.relevant(files); len(changed) > 0 {
					a.regenerate(ctx, out, changed)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if err := watcher.Start(); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}

			color.New(color.FgYellow).Fprintln(out, "Watching for changes. Press Ctrl+C to stop")
			<-ctx.Done()

			fmt.Fprintln(out, "\nShutting down...")
			return watcher.Stop()
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "debounce delay before a new round")
	return cmd
}

// relevant drops files below the output directories, so a round never
// triggers itself
func (a *app) relevant(files []string) []string {
	var outputs []string
	for _, dir := range a.cfg.OutputDirs() {
		if abs, err := filepath.Abs(dir); err == nil && dir != "" {
			outputs = append(outputs, abs)
		}
	}

	var kept []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		inside := false
		for _, out := range outputs {
			if abs == out || strings.HasPrefix(abs, out+string(filepath.Separator)) {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, f)
		}
	}
	return kept
}

// regenerate runs one round with a fresh template cache and prints a
// one-line summary. Failures are reported, never returned, so watching
// goes on. Rounds never overlap.
func (a *app) regenerate(ctx context.Context, w io.Writer, changed []string) {
	a.rounds.Lock()
	defer a.rounds.Unlock()

	a.pipeline.Loader().Invalidate()
	if len(changed) > 0 {
		a.log.Debug("files changed", zap.Strings("files", changed))
	}

	report, err := a.generate(ctx)
	stamp := time.Now().Format("15:04:05")
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(w, "[%s] round failed: %v\n", stamp, err)
		return
	}

	for _, d := range report.Diagnostics {
		fmt.Fprintln(w, diag.FormatCompact(d))
	}
	line := fmt.Sprintf("[%s] %d file(s) written, %s", stamp, report.Written(), diag.Summary(report.Diagnostics))
	if report.HasErrors() {
		color.New(color.FgRed).Fprintln(w, line)
		return
	}
	color.New(color.FgGreen).Fprintln(w, line)
}
