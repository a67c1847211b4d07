// Package yamlsrc loads declaration graphs from YAML documents. Hosts that
// can export their symbol tables use it instead of a source parser.
package yamlsrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/declgen/internal/decl"
)

// Source reads every .yaml and .yml file below its paths
type Source struct {
	fs    afero.Fs
	paths []string
}

var _ decl.Source = (*Source)(nil)

// NewSource creates a source over files or directories of fs
func NewSource(fs afero.Fs, paths ...string) *Source {
	return &Source{fs: fs, paths: paths}
}

// Load builds the graph from all documents. Files are read in lexical
// order so node order is stable.
func (s *Source) Load(ctx context.Context) (*decl.Graph, []decl.NodeID, error) {
	files, err := s.files()
	if err != nil {
		return nil, nil, err
	}

	b := decl.NewBuilder()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		data, err := afero.ReadFile(s.fs, file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := Decode(b, data); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	return b.Graph(), b.Roots(), nil
}

func (s *Source) files() ([]string, error) {
	var files []string
	for _, p := range s.paths {
		info, err := s.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = afero.Walk(s.fs, p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isYAML(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Decode adds every document of data to b
func Decode(b *decl.Builder, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid graph document: %w", err)
		}
		if err := add(b, &doc); err != nil {
			return err
		}
	}
}

func add(b *decl.Builder, doc *Document) error {
	for _, p := range doc.Packages {
		pkg := b.Package(p.Name)
		annotate(b, pkg, p.Annotations)
		if p.Root == nil || *p.Root {
			b.Root(pkg)
		}
		for i := range p.Types {
			if err := addType(b, pkg, &p.Types[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func addType(b *decl.Builder, parent decl.NodeID, t *TypeDoc) error {
	kind := decl.KindClass
	if t.Kind != "" {
		k, err := decl.ParseKind(t.Kind)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.Name, err)
		}
		if !k.IsType() {
			return fmt.Errorf("type %s: %s is not a type kind", t.Name, k)
		}
		kind = k
	}

	id := b.Type(parent, kind, t.Name)
	if err := modify(b, id, t.Modifiers); err != nil {
		return fmt.Errorf("type %s: %w", t.Name, err)
	}
	annotate(b, id, t.Annotations)
	if t.Extends != "" {
		b.Extends(id, decl.TypeRef(t.Extends))
	}
	for _, iface := range t.Implements {
		b.Implements(id, decl.TypeRef(iface))
	}
	addTypeParameters(b, id, t.TypeParameters)

	for _, f := range t.Fields {
		fid := b.Field(id, f.Name, decl.TypeRef(f.Type))
		if err := variable(b, fid, &f); err != nil {
			return err
		}
	}
	for _, c := range t.EnumConstants {
		cid := b.EnumConstant(id, c.Name)
		if err := variable(b, cid, &c); err != nil {
			return err
		}
	}
	for i := range t.Constructors {
		if err := addMethod(b, b.Constructor(id), &t.Constructors[i]); err != nil {
			return err
		}
	}
	for i := range t.Methods {
		m := &t.Methods[i]
		if err := addMethod(b, b.Method(id, m.Name), m); err != nil {
			return err
		}
	}
	for i := range t.Types {
		if err := addType(b, id, &t.Types[i]); err != nil {
			return err
		}
	}
	return nil
}

func addMethod(b *decl.Builder, id decl.NodeID, m *MethodDoc) error {
	if err := modify(b, id, m.Modifiers); err != nil {
		return fmt.Errorf("method %s: %w", m.Name, err)
	}
	annotate(b, id, m.Annotations)
	if m.Returns != "" {
		b.Returns(id, decl.TypeRef(m.Returns))
	}
	addTypeParameters(b, id, m.TypeParameters)
	for _, p := range m.Parameters {
		pid := b.Param(id, p.Name, decl.TypeRef(p.Type))
		if err := variable(b, pid, &p); err != nil {
			return err
		}
	}
	for _, t := range m.Throws {
		b.Throws(id, decl.TypeRef(t))
	}
	if m.Default != nil && m.Default.Value != nil {
		b.Default(id, m.Default.Value)
	}
	return nil
}

func addTypeParameters(b *decl.Builder, owner decl.NodeID, params []TypeParameterDoc) {
	for _, tp := range params {
		bounds := make([]decl.TypeRef, 0, len(tp.Bounds))
		for _, bound := range tp.Bounds {
			bounds = append(bounds, decl.TypeRef(bound))
		}
		b.TypeParam(owner, tp.Name, bounds...)
	}
}

func variable(b *decl.Builder, id decl.NodeID, v *VariableDoc) error {
	if err := modify(b, id, v.Modifiers); err != nil {
		return fmt.Errorf("%s: %w", v.Name, err)
	}
	annotate(b, id, v.Annotations)
	return nil
}

func modify(b *decl.Builder, id decl.NodeID, names []string) error {
	mods := make([]decl.Modifier, 0, len(names))
	for _, name := range names {
		m, err := decl.ParseModifier(name)
		if err != nil {
			return err
		}
		mods = append(mods, m)
	}
	b.Modify(id, mods...)
	return nil
}

func annotate(b *decl.Builder, id decl.NodeID, docs []AnnotationDoc) {
	for _, a := range docs {
		b.Annotate(id, a.Annotation())
	}
}
