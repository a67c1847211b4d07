package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr(t *testing.T) {
	e := ParseExpr("K[p][@q=v=w][]")
	assert.Equal(t, "K", e.Kind)
	require.Len(t, e.Terms, 3)

	assert.Equal(t, Term{Name: "p"}, e.Terms[0])

	assert.Equal(t, "q", e.Terms[1].Name)
	assert.True(t, e.Terms[1].Target)
	require.NotNil(t, e.Terms[1].Value)
	assert.Equal(t, "v=w", *e.Terms[1].Value)

	assert.Equal(t, "", e.Terms[2].Name)

	bare := ParseExpr("entity")
	assert.Equal(t, "entity", bare.Kind)
	assert.Empty(t, bare.Terms)
}

func TestExprMatches(t *testing.T) {
	props := &Metadata{
		Kind:       "K",
		Properties: Properties{"p": nil, "q": strPtr("v")},
	}
	carried := &Metadata{
		Kind:       "entity",
		Properties: Properties{},
		Target:     map[string]string{"name": "Foo"},
	}

	tests := []struct {
		name string
		expr string
		md   *Metadata
		want bool
	}{
		{"kind", "K", props, true},
		{"any kind", "*", props, true},
		{"other kind", "L", props, false},
		{"property present", "K[p]", props, true},
		{"property value", "K[q=v]", props, true},
		{"both properties", "K[p][q=v]", props, true},
		{"value mismatch", "K[q=w]", props, false},
		{"value on valueless property", "K[p=x]", props, false},
		{"empty value on valueless property", "K[p=]", props, false},
		{"missing property", "K[r]", props, false},
		{"empty property name", "K[]", props, false},
		{"target without carrier", "*[@name=Foo]", props, false},
		{"target value", "*[@name=Foo]", carried, true},
		{"target value mismatch", "*[@name=Bar]", carried, false},
		{"target present", "*[@name]", carried, true},
		{"target missing", "*[@other]", carried, false},
		{"target name is not a property", "*[name=Foo]", carried, false},
		{"target prefix only", "*[@]", carried, false},
		{"no metadata", "*", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExpr(tt.expr).Matches(tt.md))
		})
	}
}
