package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/declgen/internal/cli/ui"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/generator"
)

// ErrGenerationFailed is returned when a round reported errors
var ErrGenerationFailed = errors.New("generation reported errors")

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g", "gen"},
		Short:   "Run one generation round",
		Long: `Load the configured declarations, discover generator rules and render
their templates into the output directories.

Examples:
  # Generate with ./declgen.yaml
  declgen generate

  # Print the round report as JSON
  declgen generate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.generate(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeReportJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report)
			}

			if report.HasErrors() {
				return ErrGenerationFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the round report as JSON")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// generate runs one round from the configured source
func (a *app) generate(ctx context.Context) (*generator.Report, error) {
	round, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return a.processor.Process(ctx, round)
}

func printReport(w io.Writer, report *generator.Report) {
	if len(report.Outputs) > 0 {
		table := ui.NewTable(w, []string{"Status", "Area", "Path", "Rule"}, nil)
		for _, o := range report.Outputs {
			table.AddRow(string(o.Status), string(o.Area), o.Path, o.Rule)
		}
		table.Render()
		fmt.Fprintln(w)
	}

	if len(report.Diagnostics) > 0 {
		fmt.Fprint(w, diag.FormatList(report.Diagnostics))
	}

	successColor := color.New(color.FgGreen, color.Bold)
	if report.HasErrors() {
		successColor = color.New(color.FgRed, color.Bold)
	}
	successColor.Fprintf(w, "%d file(s) written", report.Written())
	fmt.Fprintf(w, " by %d rule(s) in %s\n", report.Rules, report.Duration.Round(time.Millisecond))
}

type reportJSON struct {
	RoundID     string       `json:"round_id"`
	Started     time.Time    `json:"started"`
	DurationMS  int64        `json:"duration_ms"`
	Rules       int          `json:"rules"`
	Written     int          `json:"written"`
	Outputs     []outputJSON `json:"outputs"`
	Diagnostics diag.List    `json:"diagnostics"`
}

type outputJSON struct {
	Rule   string `json:"rule"`
	Area   string `json:"area"`
	Path   string `json:"path"`
	Status string `json:"status"`
}

func writeReportJSON(w io.Writer, report *generator.Report) error {
	out := reportJSON{
		RoundID:     report.RoundID,
		Started:     report.Started,
		DurationMS:  report.Duration.Milliseconds(),
		Rules:       report.Rules,
		Written:     report.Written(),
		Outputs:     make([]outputJSON, 0, len(report.Outputs)),
		Diagnostics: report.Diagnostics,
	}
	if out.Diagnostics == nil {
		out.Diagnostics = diag.List{}
	}
	for _, o := range report.Outputs {
		out.Outputs = append(out.Outputs, outputJSON{
			Rule:   o.Rule,
			Area:   string(o.Area),
			Path:   o.Path,
			Status: string(o.Status),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
