package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/declgen/internal/cli/config"
)

// ErrConfigExists is returned by init when a configuration file exists
var ErrConfigExists = errors.New("configuration file already exists")

// initAnswers are the values init asks for
type initAnswers struct {
	SourceKind  string
	SourcePaths string
	TemplateDir string
	OutputDir   string
	Ledger      bool
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter declgen.yaml",
		Long: `Create declgen.yaml and the template root in the current directory.

Without --yes the settings are asked for interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists := opts.configFile, false
			if path == "" {
				path = config.FileName + ".yaml"
				if found, ok := config.Find(opts.fs, "."); ok {
					path, exists = found, true
				}
			} else {
				exists, _ = afero.Exists(opts.fs, path)
			}
			if exists && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
			}

			d := config.Default()
			answers := &initAnswers{
				SourceKind:  d.Source.Kind,
				SourcePaths: strings.Join(d.Source.Paths, ","),
				TemplateDir: d.Template.RootDir,
				OutputDir:   d.Output.SourceDir,
			}
			if !yes {
				if err := askInit(answers); err != nil {
					return err
				}
			}

			cfg := answers.config()
			if err := config.Write(opts.fs, path, cfg); err != nil {
				return err
			}
			if err := opts.fs.MkdirAll(cfg.Template.RootDir, 0o755); err != nil {
				return fmt.Errorf("failed to create template root: %w", err)
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintf(out, "Created %s\n", path)
			fmt.Fprintf(out, "Templates go in %s/, run 'declgen generate' when ready\n", cfg.Template.RootDir)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept the defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	return cmd
}

func askInit(answers *initAnswers) error {
	questions := []*survey.Question{
		{
			Name: "SourceKind",
			Prompt: &survey.Select{
				Message: "Declaration source:",
				Options: []string{config.SourceJava, config.SourceYAML},
				Default: answers.SourceKind,
			},
		},
		{
			Name: "SourcePaths",
			Prompt: &survey.Input{
				Message: "Source paths (comma separated):",
				Default: answers.SourcePaths,
			},
			Validate: survey.Required,
		},
		{
			Name: "TemplateDir",
			Prompt: &survey.Input{
				Message: "Template root:",
				Default: answers.TemplateDir,
			},
			Validate: survey.Required,
		},
		{
			Name: "OutputDir",
			Prompt: &survey.Input{
				Message: "Generated sources directory:",
				Default: answers.OutputDir,
			},
			Validate: survey.Required,
		},
		{
			Name: "Ledger",
			Prompt: &survey.Confirm{
				Message: "Record generation rounds in a ledger?",
				Default: answers.Ledger,
			},
		},
	}
	return survey.Ask(questions, answers)
}

// config turns the answers into a configuration on top of the defaults
func (a *initAnswers) config() *config.Config {
	cfg := config.Default()
	cfg.Source.Kind = a.SourceKind
	if a.SourceKind == config.SourceYAML {
		cfg.Source.Include = nil
	}

	cfg.Source.Paths = nil
	for _, p := range strings.Split(a.SourcePaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Source.Paths = append(cfg.Source.Paths, p)
		}
	}
	cfg.Template.RootDir = a.TemplateDir
	cfg.Output.SourceDir = a.OutputDir
	if a.Ledger {
		cfg.Ledger.Path = filepath.Join(".declgen", "ledger.db")
	}
	return cfg
}
