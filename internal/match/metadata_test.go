package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/declgen/internal/decl"
)

func metaData(kind string, properties ...string) *decl.Annotation {
	return decl.NewAnnotation(MetaDataAnnotation,
		decl.Pair("kind", decl.String(kind)),
		decl.Pair("properties", decl.Strings(properties...)),
	)
}

func strPtr(s string) *string { return &s }

func TestResolveWithoutMetadata(t *testing.T) {
	b := decl.NewBuilder()
	cls := b.Type(b.Package("com.test"), decl.KindClass, "Plain")
	b.Annotate(cls, decl.NewAnnotation("java.lang.Deprecated"))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	assert.False(t, ok)
	assert.Nil(t, md)
}

func TestResolveDirectMetadata(t *testing.T) {
	b := decl.NewBuilder()
	cls := b.Type(b.Package("com.test"), decl.KindClass, "Direct")
	b.Annotate(cls, metaData("K", "p", "q=v", "empty="))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "K", md.Kind)
	assert.Equal(t, Properties{"p": nil, "q": strPtr("v"), "empty": strPtr("")}, md.Properties)
	assert.Nil(t, md.Target)
}

func TestResolveDirectMetadataDefaults(t *testing.T) {
	b := decl.NewBuilder()
	cls := b.Type(b.Package("com.test"), decl.KindClass, "Bare")
	b.Annotate(cls, decl.NewAnnotation(MetaDataAnnotation))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "", md.Kind)
	assert.Empty(t, md.Properties)
}

func TestResolveNestedMetadata(t *testing.T) {
	b := decl.NewBuilder()
	pkg := b.Package("com.test")

	entity := b.Type(pkg, decl.KindAnnotationType, "Entity")
	b.Annotate(entity,
		decl.NewAnnotation("java.lang.annotation.Retention", decl.Pair("value", decl.Constant("RetentionPolicy.RUNTIME"))),
		metaData("entity", "persistent"),
	)
	b.Method(entity, "name")
	b.Default(b.Method(entity, "table"), decl.String("t_default"))
	b.Default(b.Method(entity, "version"), decl.Constant("1"))

	cls := b.Type(pkg, decl.KindClass, "Customer")
	b.Annotate(cls, decl.NewAnnotation("com.test.Entity", decl.Pair("name", decl.String("Foo"))))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "entity", md.Kind)
	assert.Equal(t, Properties{"persistent": nil}, md.Properties)
	assert.Equal(t, map[string]string{"name": "Foo", "table": "t_default"}, md.Target)
}

func TestResolveKeepsOnlyImmediateCarrierFields(t *testing.T) {
	b := decl.NewBuilder()
	pkg := b.Package("com.test")

	inner := b.Type(pkg, decl.KindAnnotationType, "Inner")
	b.Annotate(inner, metaData("deep"))

	outer := b.Type(pkg, decl.KindAnnotationType, "Outer")
	b.Annotate(outer, decl.NewAnnotation("com.test.Inner", decl.Pair("label", decl.String("inner"))))

	cls := b.Type(pkg, decl.KindClass, "Target")
	b.Annotate(cls, decl.NewAnnotation("com.test.Outer", decl.Pair("label", decl.String("outer"))))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "deep", md.Kind)
	assert.Equal(t, map[string]string{"label": "outer"}, md.Target)
}

func TestResolveTerminatesOnAnnotationCycles(t *testing.T) {
	b := decl.NewBuilder()
	pkg := b.Package("com.test")

	self := b.Type(pkg, decl.KindAnnotationType, "Self")
	b.Annotate(self, decl.NewAnnotation("com.test.Self"))

	x := b.Type(pkg, decl.KindAnnotationType, "X")
	y := b.Type(pkg, decl.KindAnnotationType, "Y")
	b.Annotate(x, decl.NewAnnotation("com.test.Y"))
	b.Annotate(y, decl.NewAnnotation("com.test.X"))

	cls := b.Type(pkg, decl.KindClass, "C")
	b.Annotate(cls, decl.NewAnnotation("com.test.Self"), decl.NewAnnotation("com.test.X"))

	_, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	assert.False(t, ok)
}

func TestResolveCycleThenMetadata(t *testing.T) {
	b := decl.NewBuilder()
	pkg := b.Package("com.test")

	x := b.Type(pkg, decl.KindAnnotationType, "X")
	y := b.Type(pkg, decl.KindAnnotationType, "Y")
	b.Annotate(x, decl.NewAnnotation("com.test.Y"))
	b.Annotate(y, decl.NewAnnotation("com.test.X"), metaData("found"))

	cls := b.Type(pkg, decl.KindClass, "C")
	b.Annotate(cls, decl.NewAnnotation("com.test.X", decl.Pair("v", decl.String("x"))))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "found", md.Kind)
	assert.Equal(t, map[string]string{"v": "x"}, md.Target)
}

func TestResolveSkipsBuiltinNamespace(t *testing.T) {
	b := decl.NewBuilder()
	builtin := b.Type(b.Package("java.lang.annotation"), decl.KindAnnotationType, "Documented")
	b.Annotate(builtin, metaData("never"))

	cls := b.Type(b.Package("com.test"), decl.KindClass, "C")
	b.Annotate(cls, decl.NewAnnotation("java.lang.annotation.Documented"))

	_, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	assert.False(t, ok)

	md, ok := NewMetadataResolver(b.Graph(), WithBuiltinNamespaces()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "never", md.Kind)
}

func TestResolveFirstMetadataWins(t *testing.T) {
	b := decl.NewBuilder()
	pkg := b.Package("com.test")

	stereo := b.Type(pkg, decl.KindAnnotationType, "Stereo")
	b.Annotate(stereo, metaData("nested"))

	cls := b.Type(pkg, decl.KindClass, "C")
	b.Annotate(cls, decl.NewAnnotation("com.test.Stereo"), metaData("direct"))

	md, ok := NewMetadataResolver(b.Graph()).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "nested", md.Kind)
}

func TestResolveInheritedMetadata(t *testing.T) {
	b := decl.NewBuilder()
	api := b.Type(b.Package("declgen.api"), decl.KindAnnotationType, "MetaData")
	b.Annotate(api, decl.NewAnnotation(decl.InheritedAnnotation))

	pkg := b.Package("com.test")
	base := b.Type(pkg, decl.KindClass, "Base")
	b.Annotate(base, metaData("base"))
	sub := b.Extends(b.Type(pkg, decl.KindClass, "Sub"), "com.test.Base")

	md, ok := NewMetadataResolver(b.Graph()).Resolve(sub)
	require.True(t, ok)
	assert.Equal(t, "base", md.Kind)
}

func TestResolveCustomAnnotationType(t *testing.T) {
	b := decl.NewBuilder()
	cls := b.Type(b.Package("com.test"), decl.KindClass, "C")
	b.Annotate(cls, decl.NewAnnotation("org.acme.Meta", decl.Pair("kind", decl.String("acme"))))

	md, ok := NewMetadataResolver(b.Graph(), WithMetadataAnnotation("org.acme.Meta")).Resolve(cls)
	require.True(t, ok)
	assert.Equal(t, "acme", md.Kind)
}

func TestResolveCaches(t *testing.T) {
	b := decl.NewBuilder()
	cls := b.Type(b.Package("com.test"), decl.KindClass, "C")
	b.Annotate(cls, metaData("K"))

	r := NewMetadataResolver(b.Graph())
	first, _ := r.Resolve(cls)
	second, _ := r.Resolve(cls)
	assert.Same(t, first, second)
}

func TestParseProperty(t *testing.T) {
	name, value := ParseProperty("p")
	assert.Equal(t, "p", name)
	assert.Nil(t, value)

	name, value = ParseProperty("q=a=b")
	assert.Equal(t, "q", name)
	require.NotNil(t, value)
	assert.Equal(t, "a=b", *value)
}
