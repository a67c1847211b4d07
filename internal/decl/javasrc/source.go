// Package javasrc builds declaration graphs from Java sources.
//
// Files are parsed with tree-sitter in two passes. The first pass records
// every package and type declared anywhere in the source set; the second
// builds the graph, resolving type names against imports, the enclosing
// types, the file's package, wildcard imports and java.lang. Method bodies
// are never inspected.
package javasrc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/conduit-lang/declgen/internal/decl"
)

// DefaultInclude selects every Java file below a source root
const DefaultInclude = "**/*.java"

// ErrSyntax is returned for files tree-sitter cannot parse cleanly
var ErrSyntax = errors.New("java syntax error")

var language = sitter.NewLanguage(tree_sitter_java.Language())

// Options selects the files a Source reads
type Options struct {
	// Paths are source roots or single files
	Paths []string
	// Include and Exclude are glob patterns matched against the
	// slash-separated path relative to its source root
	Include []string
	Exclude []string
}

// Source parses Java files into a declaration graph. Every package
// declared by a parsed file is a root.
type Source struct {
	fs      afero.Fs
	paths   []string
	include []glob.Glob
	exclude []glob.Glob
}

var _ decl.Source = (*Source)(nil)

// NewSource creates a source over fs. An empty include list selects all
// .java files.
func NewSource(fs afero.Fs, opts Options) (*Source, error) {
	include := opts.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}
	s := &Source{fs: fs, paths: opts.Paths}

	var err error
	if s.include, err = compileGlobs(include); err != nil {
		return nil, err
	}
	if s.exclude, err = compileGlobs(opts.Exclude); err != nil {
		return nil, err
	}
	return s, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Load parses the selected files and builds the graph
func (s *Source) Load(ctx context.Context) (*decl.Graph, []decl.NodeID, error) {
	files, err := s.Files()
	if err != nil {
		return nil, nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, nil, fmt.Errorf("failed to load java grammar: %w", err)
	}

	units := make([]*unit, 0, len(files))
	defer func() {
		for _, u := range units {
			u.close()
		}
	}()

	known := make(map[string]bool)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		u, err := parseFile(s.fs, parser, file)
		if err != nil {
			return nil, nil, err
		}
		units = append(units, u)
		u.declare(known)
	}

	b := decl.NewBuilder()
	rooted := make(map[decl.NodeID]bool)
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pkg := u.build(b, known)
		if !rooted[pkg] {
			rooted[pkg] = true
			b.Root(pkg)
		}
	}
	return b.Graph(), b.Roots(), nil
}

// Files returns the selected files in lexical order
func (s *Source) Files() ([]string, error) {
	var files []string
	for _, root := range s.paths {
		info, err := s.fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Ext(root), ".java") {
				files = append(files, root)
			}
			continue
		}
		err = afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if s.selects(filepath.ToSlash(rel)) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *Source) selects(rel string) bool {
	return anyMatch(s.include, rel) && !anyMatch(s.exclude, rel)
}

// anyMatch also tries the path with a leading slash so that "**/" patterns
// select files directly below the root
func anyMatch(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	return false
}

func parseFile(fs afero.Fs, parser *sitter.Parser, path string) (*unit, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("%s: parse failed", path)
	}
	root := tree.RootNode()
	if root.HasError() {
		line := 0
		if bad := firstError(root); bad != nil {
			line = int(bad.StartPosition().Row) + 1
		}
		tree.Close()
		return nil, fmt.Errorf("%w: %s:%d", ErrSyntax, path, line)
	}
	return newUnit(path, src, tree), nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
