package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/declgen/internal/cli/ui"
	"github.com/conduit-lang/declgen/internal/ledger"
)

// ErrLedgerDisabled is returned by history when no ledger is configured
var ErrLedgerDisabled = errors.New("ledger is disabled, set ledger.path in the configuration")

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		limit   int
		runID   string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation rounds",
		Long: `List the rounds recorded in the generation ledger, newest first, or the
files written by one round.

Examples:
  declgen history --limit 5
  declgen history --run 3f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Ledger.Path == "" {
				return ErrLedgerDisabled
			}

			log, err := opts.newLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			ctx := contextOf(cmd)
			l, err := ledger.Open(ctx, cfg.Ledger.Path, log.Named("ledger"))
			if err != nil {
				return err
			}
			defer l.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				outputs, err := l.Outputs(ctx, runID)
				if err != nil {
					return err
				}
				printOutputs(out, runID, outputs, noColor)
				return nil
			}

			runs, err := l.Runs(ctx, limit)
			if err != nil {
				return err
			}
			printRuns(out, runs, noColor)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of rounds to list, 0 for all")
	cmd.Flags().StringVar(&runID, "run", "", "list the outputs of one round")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func printRuns(w io.Writer, runs []ledger.Run, noColor bool) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No rounds recorded")
		return
	}
	table := ui.NewTable(w, []string{"Round", "Started", "Duration", "Rules", "Written", "Warnings", "Errors"}, &ui.TableOptions{NoColor: noColor})
	for _, r := range runs {
		table.AddRow(
			r.ID,
			r.Started.Local().Format(time.DateTime),
			r.Duration.String(),
			strconv.Itoa(r.Rules),
			strconv.Itoa(r.Outputs),
			strconv.Itoa(r.Warnings),
			strconv.Itoa(r.Errors),
		)
	}
	table.Render()
}

func printOutputs(w io.Writer, runID string, outputs []ledger.Output, noColor bool) {
	ui.Header(w, "Round "+runID, noColor)
	if len(outputs) == 0 {
		fmt.Fprintln(w, "No outputs")
		return
	}
	table := ui.NewTable(w, []string{"Status", "Area", "Path", "Rule"}, &ui.TableOptions{NoColor: noColor})
	for _, o := range outputs {
		table.AddRow(o.Status, o.Area, o.Path, o.Rule)
	}
	table.Render()
}
