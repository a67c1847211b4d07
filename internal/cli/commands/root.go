package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// rootOptions holds the persistent flags and the dependencies shared by
// every subcommand
type rootOptions struct {
	configFile string
	verbose    bool

	fs        afero.Fs
	newLogger func(verbose bool) (*zap.Logger, error)
}

func defaultRootOptions() *rootOptions {
	return &rootOptions{
		fs:        afero.NewOsFs(),
		newLogger: newLogger,
	}
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultRootOptions())
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "declgen",
		Short: "Template-driven code generation from annotated declarations",
		Long: color.CyanString(`declgen - annotation-driven code generation

declgen finds generator interfaces in a set of declarations, matches the
declarations selected by their rules and renders templates for them.

Commands:
  • generate  run one generation round
  • scan      show what every rule matches
  • watch     regenerate when sources or templates change
  • init      write a starter declgen.yaml
  • history   list recorded rounds`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./declgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "report info diagnostics and debug logs")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newGenerateCommand(opts))
	rootCmd.AddCommand(newScanCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the declgen version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	// Set GoVersion to actual runtime if not set at build time
	goVer := GoVersion
	if goVer == "unknown" {
		goVer = runtime.Version()
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	for _, line := range [][2]string{
		{"declgen version: ", Version},
		{"Git commit: ", GitCommit},
		{"Build date: ", BuildDate},
		{"Go version: ", goVer},
	} {
		titleColor.Fprint(w, line[0])
		fmt.Fprintln(w, line[1])
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
