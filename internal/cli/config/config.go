package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/declgen/internal/generator"
	"github.com/conduit-lang/declgen/internal/match"
	"github.com/conduit-lang/declgen/internal/pipeline"
)

// FileName is the configuration file name without extension
const FileName = "declgen"

// Source kinds
const (
	SourceJava = "java"
	SourceYAML = "yaml"
)

// ErrInvalid is returned when a loaded configuration fails validation
var ErrInvalid = errors.New("invalid configuration")

// Config represents the declgen configuration
type Config struct {
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
	// PackagePattern restricts matching to packages it matches in full
	PackagePattern string         `mapstructure:"matched_element_package_pattern" yaml:"matched_element_package_pattern"`
	Template       TemplateConfig `mapstructure:"template" yaml:"template"`
	Source         SourceConfig   `mapstructure:"source" yaml:"source"`
	Output         OutputConfig   `mapstructure:"output" yaml:"output"`
	Metadata       MetadataConfig `mapstructure:"metadata" yaml:"metadata"`
	Ledger         LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
}

// TemplateConfig represents template engine configuration
type TemplateConfig struct {
	RootDir         string `mapstructure:"root_dir" yaml:"root_dir"`
	DefaultEncoding string `mapstructure:"default_encoding" yaml:"default_encoding"`
	Verbose         bool   `mapstructure:"verbose" yaml:"verbose"`
}

// SourceConfig selects the declarations of a round
type SourceConfig struct {
	Kind    string   `mapstructure:"kind" yaml:"kind"`
	Paths   []string `mapstructure:"paths" yaml:"paths"`
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// OutputConfig maps output areas to directories
type OutputConfig struct {
	SourceDir       string `mapstructure:"source_dir" yaml:"source_dir"`
	ClassDir        string `mapstructure:"class_dir" yaml:"class_dir"`
	NativeHeaderDir string `mapstructure:"native_header_dir" yaml:"native_header_dir"`
}

// MetadataConfig represents metadata resolution configuration
type MetadataConfig struct {
	BuiltinNamespaces []string `mapstructure:"builtin_namespaces" yaml:"builtin_namespaces"`
}

// LedgerConfig represents the generation ledger configuration
type LedgerConfig struct {
	// Path of the ledger database, empty to disable it
	Path string `mapstructure:"path" yaml:"path"`
}

// Default returns the configuration used when no file sets a key
func Default() *Config {
	return &Config{
		PackagePattern: ".*",
		Template: TemplateConfig{
			RootDir:         "templates",
			DefaultEncoding: pipeline.DefaultEncoding,
		},
		Source: SourceConfig{
			Kind:    SourceJava,
			Paths:   []string{"src"},
			Include: []string{"**/*.java"},
			Exclude: []string{},
		},
		Output: OutputConfig{
			SourceDir:       "build/generated/sources",
			ClassDir:        "build/generated/classes",
			NativeHeaderDir: "build/generated/headers",
		},
		Metadata: MetadataConfig{
			BuiltinNamespaces: []string{"java.lang.annotation"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("matched_element_package_pattern", d.PackagePattern)
	// template.root_dir has no default: it must be configured
	v.SetDefault("template.default_encoding", d.Template.DefaultEncoding)
	v.SetDefault("template.verbose", d.Template.Verbose)
	v.SetDefault("source.kind", d.Source.Kind)
	v.SetDefault("source.paths", d.Source.Paths)
	v.SetDefault("source.include", d.Source.Include)
	v.SetDefault("source.exclude", d.Source.Exclude)
	v.SetDefault("output.source_dir", d.Output.SourceDir)
	v.SetDefault("output.class_dir", d.Output.ClassDir)
	v.SetDefault("output.native_header_dir", d.Output.NativeHeaderDir)
	v.SetDefault("metadata.builtin_namespaces", d.Metadata.BuiltinNamespaces)
	v.SetDefault("ledger.path", d.Ledger.Path)
}

// Load loads the configuration from file, or from declgen.yml or
// declgen.yaml in the working directory when file is empty. DECLGEN_
// environment variables override both.
func Load(file string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), file)
}

// LoadFs is Load with validation against fs
func LoadFs(fs afero.Fs, file string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DECLGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("template.root_dir")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(fs); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against fs
func (c *Config) Validate(fs afero.Fs) error {
	if c.Template.RootDir == "" {
		return fmt.Errorf("%w: template.root_dir must be set", ErrInvalid)
	}
	info, err := fs.Stat(c.Template.RootDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: template.root_dir %q is not a directory", ErrInvalid, c.Template.RootDir)
	}
	if _, err := match.NewPackageFilter(c.PackagePattern); err != nil {
		return fmt.Errorf("%w: matched_element_package_pattern: %v", ErrInvalid, err)
	}
	if _, err := pipeline.LookupEncoding(c.Template.DefaultEncoding); err != nil {
		return fmt.Errorf("%w: template.default_encoding: %v", ErrInvalid, err)
	}
	switch c.Source.Kind {
	case SourceJava, SourceYAML:
	default:
		return fmt.Errorf("%w: source.kind must be %q or %q, got %q", ErrInvalid, SourceJava, SourceYAML, c.Source.Kind)
	}
	if len(c.Source.Paths) == 0 {
		return fmt.Errorf("%w: source.paths must not be empty", ErrInvalid)
	}
	return nil
}

// OutputDirs maps every output area to its directory
func (c *Config) OutputDirs() map[pipeline.Area]string {
	return map[pipeline.Area]string{
		pipeline.SourceOutput:       c.Output.SourceDir,
		pipeline.ClassOutput:        c.Output.ClassDir,
		pipeline.NativeHeaderOutput: c.Output.NativeHeaderDir,
	}
}

// ProcessorOptions returns the processor options of the configuration
func (c *Config) ProcessorOptions() *generator.Options {
	return &generator.Options{
		Verbose:           c.Verbose,
		PackagePattern:    c.PackagePattern,
		BuiltinNamespaces: c.Metadata.BuiltinNamespaces,
	}
}

// WatchPaths returns the paths whose changes start a new round
func (c *Config) WatchPaths() []string {
	return append(append([]string(nil), c.Source.Paths...), c.Template.RootDir)
}

// Find returns the configuration file in dir, if any
func Find(fs afero.Fs, dir string) (string, bool) {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, FileName+ext)
		if _, err := fs.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Write stores cfg as YAML at path
func Write(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
