package config

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/declgen/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	// Test loading with no config file (only the template root is required)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(oldWd)

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	require.NoError(t, os.Mkdir("tmpl", 0o755))
	t.Setenv("DECLGEN_TEMPLATE_ROOT_DIR", "tmpl")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Verbose)
	assert.Equal(t, ".*", cfg.PackagePattern)
	assert.Equal(t, "tmpl", cfg.Template.RootDir)
	assert.Equal(t, "UTF-8", cfg.Template.DefaultEncoding)
	assert.Equal(t, SourceJava, cfg.Source.Kind)
	assert.Equal(t, []string{"src"}, cfg.Source.Paths)
	assert.Equal(t, []string{"**/*.java"}, cfg.Source.Include)
	assert.Equal(t, "build/generated/sources", cfg.Output.SourceDir)
	assert.Equal(t, "build/generated/classes", cfg.Output.ClassDir)
	assert.Equal(t, "build/generated/headers", cfg.Output.NativeHeaderDir)
	assert.Equal(t, []string{"java.lang.annotation"}, cfg.Metadata.BuiltinNamespaces)
	assert.Empty(t, cfg.Ledger.Path)
}

func TestLoadWithConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/project/templates", 0o755))

	configContent := `
verbose: true
matched_element_package_pattern: com\.example\..*
template:
  root_dir: /project/templates
  default_encoding: ISO-8859-1
source:
  kind: yaml
  paths: [graph.yaml]
output:
  source_dir: out/src
ledger:
  path: .declgen/ledger.db
`
	require.NoError(t, afero.WriteFile(fs, "/project/declgen.yaml", []byte(configContent), 0o644))

	cfg, err := LoadFs(fs, "/project/declgen.yaml")
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, `com\.example\..*`, cfg.PackagePattern)
	assert.Equal(t, "ISO-8859-1", cfg.Template.DefaultEncoding)
	assert.Equal(t, SourceYAML, cfg.Source.Kind)
	assert.Equal(t, []string{"graph.yaml"}, cfg.Source.Paths)
	assert.Equal(t, ".declgen/ledger.db", cfg.Ledger.Path)

	dirs := cfg.OutputDirs()
	assert.Equal(t, "out/src", dirs[pipeline.SourceOutput])
	assert.Equal(t, "build/generated/classes", dirs[pipeline.ClassOutput])

	opts := cfg.ProcessorOptions()
	assert.True(t, opts.Verbose)
	assert.Equal(t, cfg.PackagePattern, opts.PackagePattern)
	assert.Equal(t, []string{"graph.yaml", "/project/templates"}, cfg.WatchPaths())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFs(afero.NewMemMapFs(), "/nowhere/declgen.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("templates", 0o755))
	require.NoError(t, afero.WriteFile(fs, "file.txt", nil, 0o644))

	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"missing root", func(c *Config) { c.Template.RootDir = "" }, false},
		{"root not found", func(c *Config) { c.Template.RootDir = "nope" }, false},
		{"root is a file", func(c *Config) { c.Template.RootDir = "file.txt" }, false},
		{"bad pattern", func(c *Config) { c.PackagePattern = "(" }, false},
		{"unknown encoding", func(c *Config) { c.Template.DefaultEncoding = "klingon" }, false},
		{"unknown source kind", func(c *Config) { c.Source.Kind = "kotlin" }, false},
		{"no source paths", func(c *Config) { c.Source.Paths = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate(fs)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestWriteAndFind(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/templates", 0o755))

	_, found := Find(fs, "/work")
	assert.False(t, found)

	cfg := Default()
	cfg.Template.RootDir = "/work/templates"
	require.NoError(t, Write(fs, "/work/declgen.yaml", cfg))

	path, found := Find(fs, "/work")
	require.True(t, found)
	assert.Equal(t, "/work/declgen.yaml", path)

	loaded, err := LoadFs(fs, path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Template, loaded.Template)
	assert.Equal(t, cfg.Source.Kind, loaded.Source.Kind)
	assert.Equal(t, cfg.Source.Paths, loaded.Source.Paths)
	assert.Equal(t, cfg.Source.Include, loaded.Source.Include)
	assert.Equal(t, cfg.Output, loaded.Output)
}
