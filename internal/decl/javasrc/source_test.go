package javasrc

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/declgen/internal/decl"
	"github.com/conduit-lang/declgen/internal/generator"
)

const entitySrc = `package com.test.model;

import java.lang.annotation.Inherited;

@Inherited
public @interface Entity {
    String name();
    int version() default 1;
    String[] tags() default {"a", "b"};
}
`

const orderSrc = `package com.test.model;

import java.io.Serializable;
import java.util.*;

@Entity(name = "orders")
public final class Order extends Base<Order> implements Serializable, Comparable<Order> {
    private long id, count[];
    public static final String TABLE = "orders";

    public Order(long id) throws IllegalArgumentException {
        this.id = id;
    }

    public <T extends Comparable<T>> List<T> sorted(Map<String, ? extends T> values, String... keys) throws java.io.IOException {
        return null;
    }

    static class Line {
        Order order;
    }

    enum Status { OPEN, CLOSED; void touch() {} }
}
`

const baseSrc = `package com.test.model;

public abstract class Base<T> {
    protected abstract void validate(T value);
}
`

const generatorSrc = `package com.test.gen;

import declgen.api.*;
import com.test.model.Entity;

@Generator
public interface ModelGenerator {
    @Produces(output = "{packageElementPath}/{elementSimpleName}Dao.java", template = "dao.tmpl")
    @ForEachElement(@Where(kind = ElementKind.CLASS, annotations = {"com.test.model.Entity"}))
    void daos();

    @Produces(output = "Registry.java", template = "registry.tmpl", outputRootLocation = StandardLocation.SOURCE_OUTPUT)
    @ForAllElements({
        @Where(matchResultVariable = "entities", kind = {ElementKind.CLASS}),
        @Where(matchResultVariable = "enums", kind = ElementKind.ENUM, simpleNameMatches = "S" + "tatus")
    })
    void registry();

    interface Nested {
        int LIMIT = 3;
        String describe();
    }
}
`

const apiSrc = `package declgen.api;

@interface Generator {}
@interface Produces {}
@interface ForAllElements {}
@interface ForEachElement {}
@interface Where {}
`

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func load(t *testing.T, fs afero.Fs, opts Options) (*decl.Graph, []decl.NodeID) {
	t.Helper()
	src, err := NewSource(fs, opts)
	require.NoError(t, err)
	g, roots, err := src.Load(context.Background())
	require.NoError(t, err)
	return g, roots
}

func modelFS(t *testing.T) afero.Fs {
	return memFS(t, map[string]string{
		"src/com/test/model/Entity.java": entitySrc,
		"src/com/test/model/Order.java":  orderSrc,
		"src/com/test/model/Base.java":   baseSrc,
		"src/com/test/gen/Gen.java":      generatorSrc,
		"src/declgen/api/Api.java":       apiSrc,
	})
}

func node(t *testing.T, g *decl.Graph, name string) *decl.Node {
	t.Helper()
	id, ok := g.Lookup(name)
	require.True(t, ok, "missing %s", name)
	return g.Node(id)
}

func member(t *testing.T, g *decl.Graph, owner *decl.Node, name string) *decl.Node {
	t.Helper()
	for _, id := range owner.Enclosed {
		if n := g.Node(id); n.Name == name {
			return n
		}
	}
	t.Fatalf("%s has no member %s", owner.QualifiedName(), name)
	return nil
}

func TestLoadDeclaresPackagesAndTypes(t *testing.T) {
	g, roots := load(t, modelFS(t), Options{Paths: []string{"src"}})

	var names []string
	for _, r := range roots {
		names = append(names, g.Node(r).QualifiedName())
	}
	// files are read in lexical order
	assert.Equal(t, []string{"com.test.gen", "com.test.model", "declgen.api"}, names)

	order := node(t, g, "com.test.model.Order")
	assert.Equal(t, decl.KindClass, order.Kind)
	assert.True(t, order.Modifiers.ContainsAll([]decl.Modifier{decl.ModPublic, decl.ModFinal}))

	ts := order.Shape.(*decl.TypeShape)
	assert.Equal(t, decl.TypeRef("com.test.model.Base<com.test.model.Order>"), ts.Superclass)
	assert.Equal(t, []decl.TypeRef{"java.io.Serializable", "java.lang.Comparable<com.test.model.Order>"}, ts.Interfaces)

	line := node(t, g, "com.test.model.Order.Line")
	assert.Equal(t, order.ID, line.Enclosing)
	assert.Equal(t, decl.TypeRef("com.test.model.Order"), member(t, g, line, "order").Shape.(*decl.VariableShape).Type)

	status := node(t, g, "com.test.model.Order.Status")
	assert.Equal(t, decl.KindEnum, status.Kind)
	assert.Equal(t, decl.KindEnumConstant, member(t, g, status, "OPEN").Kind)
	assert.Equal(t, decl.KindEnumConstant, member(t, g, status, "CLOSED").Kind)
	assert.Equal(t, decl.KindMethod, member(t, g, status, "touch").Kind)
}

func TestLoadMembers(t *testing.T) {
	g, _ := load(t, modelFS(t), Options{Paths: []string{"src"}})
	order := node(t, g, "com.test.model.Order")

	id := member(t, g, order, "id")
	assert.Equal(t, decl.KindField, id.Kind)
	assert.True(t, id.Modifiers.Has(decl.ModPrivate))
	assert.Equal(t, decl.TypeRef("long"), id.Shape.(*decl.VariableShape).Type)
	assert.Equal(t, decl.TypeRef("long[]"), member(t, g, order, "count").Shape.(*decl.VariableShape).Type)
	assert.Equal(t, decl.TypeRef("java.lang.String"), member(t, g, order, "TABLE").Shape.(*decl.VariableShape).Type)

	ctor := member(t, g, order, "<init>")
	assert.Equal(t, decl.KindConstructor, ctor.Kind)
	cs := ctor.Shape.(*decl.ExecutableShape)
	require.Len(t, cs.Parameters, 1)
	assert.Equal(t, "id", g.Node(cs.Parameters[0]).Name)
	assert.Equal(t, []decl.TypeRef{"java.lang.IllegalArgumentException"}, cs.Thrown)

	sorted := member(t, g, order, "sorted")
	ms := sorted.Shape.(*decl.ExecutableShape)
	require.Len(t, ms.TypeParameters, 1)
	tp := g.Node(ms.TypeParameters[0])
	assert.Equal(t, "T", tp.Name)
	assert.Equal(t, []decl.TypeRef{"java.lang.Comparable<T>"}, tp.Shape.(*decl.TypeParameterShape).Bounds)
	assert.Equal(t, decl.TypeRef("List<T>"), ms.ReturnType, "wildcard imports of undeclared packages stay unresolved")

	require.Len(t, ms.Parameters, 2)
	assert.Equal(t, decl.TypeRef("Map<java.lang.String,? extends T>"), g.Node(ms.Parameters[0]).Shape.(*decl.VariableShape).Type)
	assert.Equal(t, decl.TypeRef("java.lang.String..."), g.Node(ms.Parameters[1]).Shape.(*decl.VariableShape).Type)
	assert.Equal(t, []decl.TypeRef{"java.io.IOException"}, ms.Thrown)

	// parameters and type parameters are not enclosed
	for _, e := range sorted.Enclosed {
		assert.NotEqual(t, decl.KindParameter, g.Node(e).Kind)
	}
}

func TestLoadAnnotations(t *testing.T) {
	g, _ := load(t, modelFS(t), Options{Paths: []string{"src"}})

	entity := node(t, g, "com.test.model.Entity")
	assert.Equal(t, decl.KindAnnotationType, entity.Kind)
	require.Len(t, entity.Annotations, 1)
	assert.Equal(t, decl.InheritedAnnotation, entity.Annotations[0].Type)

	version := member(t, g, entity, "version").Shape.(*decl.ExecutableShape)
	assert.Equal(t, decl.Constant("1"), version.Default)
	assert.Equal(t, decl.TypeRef("int"), version.ReturnType)
	assert.Equal(t, decl.Strings("a", "b"), member(t, g, entity, "tags").Shape.(*decl.ExecutableShape).Default)
	assert.Nil(t, member(t, g, entity, "name").Shape.(*decl.ExecutableShape).Default)

	order := node(t, g, "com.test.model.Order")
	require.Len(t, order.Annotations, 1)
	ann := order.Annotations[0]
	assert.Equal(t, "com.test.model.Entity", ann.Type)

	values := g.ValuesWithDefaults(ann)
	assert.Equal(t, []decl.ElementValue{
		decl.Pair("name", decl.String("orders")),
		decl.Pair("version", decl.Constant("1")),
		decl.Pair("tags", decl.Strings("a", "b")),
	}, values)

	// annotations flow down the superclass chain, never up
	base := node(t, g, "com.test.model.Base")
	assert.Empty(t, g.AllAnnotations(base.ID))
}

func TestLoadInterfaceImplicitModifiers(t *testing.T) {
	g, _ := load(t, modelFS(t), Options{Paths: []string{"src"}})

	gen := node(t, g, "com.test.gen.ModelGenerator")
	assert.Equal(t, decl.KindInterface, gen.Kind)
	assert.True(t, gen.Modifiers.Has(decl.ModAbstract))

	daos := member(t, g, gen, "daos")
	assert.True(t, daos.Modifiers.ContainsAll([]decl.Modifier{decl.ModPublic, decl.ModAbstract}))
	assert.True(t, daos.Shape.(*decl.ExecutableShape).IsVoid())

	nested := node(t, g, "com.test.gen.ModelGenerator.Nested")
	assert.True(t, nested.Modifiers.ContainsAll([]decl.Modifier{decl.ModPublic, decl.ModStatic}))
	assert.True(t, member(t, g, nested, "LIMIT").Modifiers.ContainsAll([]decl.Modifier{decl.ModPublic, decl.ModStatic, decl.ModFinal}))
}

func TestLoadGeneratorRules(t *testing.T) {
	g, roots := load(t, modelFS(t), Options{Paths: []string{"src"}})

	rules := generator.NewFinder(nil).Find(g, roots)
	require.Len(t, rules, 2)

	daos := rules[0]
	assert.Equal(t, generator.CardinalityLoop, daos.Cardinality)
	assert.Equal(t, "dao.tmpl", daos.Template)
	assert.Equal(t, "{packageElementPath}/{elementSimpleName}Dao.java", daos.Output)
	require.NotNil(t, daos.Primary)
	assert.Equal(t, []decl.Kind{decl.KindClass}, daos.Primary.Kinds)
	assert.Equal(t, []string{"com.test.model.Entity"}, daos.Primary.Annotations)

	registry := rules[1]
	assert.Equal(t, generator.CardinalityGroup, registry.Cardinality)
	require.Len(t, registry.Group, 2)
	assert.Equal(t, "entities", registry.Group[0].Binding)
	assert.Equal(t, "enums", registry.Group[1].Binding)
	assert.Equal(t, []decl.Kind{decl.KindEnum}, registry.Group[1].Kinds)
	assert.Equal(t, "Status", registry.Group[1].SimpleNameMatches)
}

func TestFileSelection(t *testing.T) {
	fs := memFS(t, map[string]string{
		"src/A.java":               "class A {}",
		"src/pkg/B.java":           "package pkg; class B {}",
		"src/pkg/BTest.java":       "package pkg; class BTest {}",
		"src/pkg/notes.txt":        "not java",
		"src/gen/pkg/Skipped.java": "package pkg; class Skipped {}",
		"other/C.java":             "package other; class C {}",
	})

	src, err := NewSource(fs, Options{
		Paths:   []string{"src", "other/C.java"},
		Exclude: []string{"gen/**", "**/*Test.java"},
	})
	require.NoError(t, err)
	files, err := src.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"other/C.java", "src/A.java", "src/pkg/B.java"}, files)

	g, roots, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 3)
	// A.java has no package declaration and lands in the unnamed package
	_, ok := g.Lookup("A")
	assert.True(t, ok)

	_, err = NewSource(fs, Options{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	fs := memFS(t, map[string]string{
		"src/Broken.java": "package p;\nclass Broken {\n  void m( {\n}\n",
	})

	src, err := NewSource(fs, Options{Paths: []string{"src"}})
	require.NoError(t, err)
	_, _, err = src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	src, err = NewSource(fs, Options{Paths: []string{"missing"}})
	require.NoError(t, err)
	_, _, err = src.Load(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src, err = NewSource(modelFS(t), Options{Paths: []string{"src"}})
	require.NoError(t, err)
	_, _, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScopeResolve(t *testing.T) {
	u := &unit{
		pkg:       "com.a",
		imports:   map[string]string{"Imported": "com.b.Imported"},
		wildcards: []string{"com.c"},
	}
	known := map[string]bool{
		"com.a.Local": true, "com.a.Outer": true, "com.a.Outer.Inner": true,
		"com.c.Wild": true, "com.b.Imported": true,
	}
	s := (&scope{u: u, known: known}).nest("com.a.Outer").withTypeVars([]string{"T"})

	tests := map[string]string{
		"int":               "int",
		"T":                 "T",
		"Inner":             "com.a.Outer.Inner",
		"Imported":          "com.b.Imported",
		"Imported.Deep":     "com.b.Imported.Deep",
		"Local":             "com.a.Local",
		"Wild":              "com.c.Wild",
		"String":            "java.lang.String",
		"Unknown":           "Unknown",
		"com.a.Outer.Inner": "com.a.Outer.Inner",
		"Outer.Inner":       "com.a.Outer.Inner",
	}
	for in, want := range tests {
		assert.Equal(t, want, s.resolve(in), in)
	}
}
