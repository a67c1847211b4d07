package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/declgen/internal/cli/ui"
	"github.com/conduit-lang/declgen/internal/diag"
	"github.com/conduit-lang/declgen/internal/generator"
)

// ErrUnknownRule is returned by scan --rule when no rule has the name
var ErrUnknownRule = errors.New("no generator rule")

func newScanCommand(opts *rootOptions) *cobra.Command {
	var (
		noColor bool
		rule    string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Show the declarations every rule matches",
		Long: `Discover generator rules and match their criteria against the configured
declarations without rendering any template.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			a, err := opts.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			round, err := a.load(ctx)
			if err != nil {
				return err
			}
			scan := a.processor.Scan(round)
			if rule != "" {
				if err := filterRules(scan, rule); err != nil {
					return err
				}
			}
			printScan(cmd.OutOrStdout(), scan, noColor)

			if scan.Diagnostics.HasErrors() {
				return ErrGenerationFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().StringVar(&rule, "rule", "", "only show rules declared by methods with this name")
	return cmd
}

// filterRules keeps the rules declared by methods named name
func filterRules(scan *generator.Scan, name string) error {
	var kept []*generator.Rule
	var names []string
	for _, r := range scan.Rules {
		method := scan.Graph.Node(r.Method).Name
		names = append(names, method)
		if method == name {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		if hint := ui.DidYouMean(ui.FindSimilar(name, names, nil)); hint != "" {
			return fmt.Errorf("%w named %s, %s", ErrUnknownRule, name, hint)
		}
		return fmt.Errorf("%w named %s", ErrUnknownRule, name)
	}
	scan.Rules = kept
	return nil
}

func printScan(w io.Writer, scan *generator.Scan, noColor bool) {
	if len(scan.Rules) == 0 {
		fmt.Fprintln(w, "No generator rules found")
	}

	for _, rule := range scan.Rules {
		ui.Header(w, rule.Element, noColor)
		kv := ui.NewKeyValueTable(w, noColor)
		kv.AddRow("Template", rule.Template)
		kv.AddRow("Output", string(rule.Area)+":"+rule.Output)
		kv.AddRow("Cardinality", rule.Cardinality.String())
		kv.Render()

		criteria := rule.Criteria()
		if len(criteria) > 0 {
			fmt.Fprintln(w)
			table := ui.NewTable(w, []string{"Binding", "Matches", "Elements"}, &ui.TableOptions{NoColor: noColor})
			for i, c := range criteria {
				binding := c.BindingName()
				if rule.Cardinality == generator.CardinalityLoop && i == 0 {
					binding += " (primary)"
				}
				ids := scan.Index.Lookup(c)
				described := make([]string, 0, len(ids))
				for _, id := range ids {
					described = append(described, scan.Graph.Describe(id))
				}
				table.AddRow(binding, strconv.Itoa(len(ids)), strings.Join(described, ", "))
			}
			table.Render()
		}
		fmt.Fprintln(w)
	}

	if len(scan.Diagnostics) > 0 {
		fmt.Fprint(w, diag.FormatList(scan.Diagnostics))
	}
}
