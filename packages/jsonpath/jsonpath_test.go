package jsonpath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const doc = `{
  "data": {
    "items": [
      {"id": 123, "name": "Example Item"},
      {"id": 456, "name": "Other"}
    ],
    "count": 2,
    "a.b": "dotted",
    "we*ird": "star"
  },
  "matrix": [[1, 2], [3, 4]]
}`

func resolve(t *testing.T, expr, body string) []gjson.Result {
	t.Helper()
	p, err := Compile(expr)
	require.NoError(t, err)
	return p.Resolve(gjson.Parse(body))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"$", []string{"{"}},
		{"$.data.count", []string{"2"}},
		{"data.count", []string{"2"}},
		{"$.data.items[0].id", []string{"123"}},
		{"$.data.items[1].name", []string{`"Other"`}},
		{"$.data.items[*].id", []string{"123", "456"}},
		{"$.matrix[1]", []string{"[3, 4]"}},
		{"$.data.we*ird", []string{`"star"`}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			nodes := resolve(t, tt.expr, doc)
			require.Len(t, nodes, len(tt.want))
			for i, n := range nodes {
				if tt.want[i] == "{" {
					assert.True(t, n.IsObject())
					continue
				}
				assert.Equal(t, tt.want[i], n.Raw)
			}
		})
	}
}

func TestResolve_RootIndex(t *testing.T) {
	nodes := resolve(t, "$[1].id", `[{"id":1},{"id":2}]`)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(2), nodes[0].Int())
}

func TestResolve_Misses(t *testing.T) {
	for _, expr := range []string{
		"$.missing",
		"$.data.items[9]",
		"$.data.count.deeper",
		"$.data.count[0]",
		"$.data.items.id",
		"$.data[*]",
	} {
		t.Run(expr, func(t *testing.T) {
			assert.Nil(t, resolve(t, expr, doc))
		})
	}
}

func TestResolve_MissingDocument(t *testing.T) {
	p := MustCompile("$")
	assert.Nil(t, p.Resolve(gjson.Result{}))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		message string
	}{
		{"", "empty path"},
		{"$..id", "recursive descent"},
		{"$.a..b", "recursive descent"},
		{"$.a.", "trailing '.'"},
		{"$.", "trailing '.'"},
		{"$.a[0][1]", "only one index"},
		{"$.a[-1]", "unsupported index"},
		{"$.a[x]", "unsupported index"},
		{"$.a[]", "empty index"},
		{"$.a[0:2]", "slices"},
		{"$.a[?(@.id==1)]", "filter"},
		{"$.a[0", "unterminated"},
		{"$['a']", "unsupported index"},
		{"$.'a'", "in field name"},
		{"$.*", "wildcard field"},
		{"$.a b", "whitespace"},
		{"$x", "after root marker"},
		{"$.a[0]x", "unexpected character"},
		{"$.a]", "in field name"},
		{"$[0]x", "expected '.' after index"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.Error(t, err)
			assert.Nil(t, p)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Contains(t, syntaxErr.Message, tt.message)
		})
	}
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, `a\.b`, escapeKey("a.b"))
	assert.Equal(t, `we\*ird`, escapeKey("we*ird"))
	assert.Equal(t, "plain_key-1:x", escapeKey("plain_key-1:x"))

	nodes := MustCompile("data").Resolve(gjson.Parse(doc))
	require.Len(t, nodes, 1)
	assert.Equal(t, "dotted", nodes[0].Get(escapeKey("a.b")).String())
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("$..x") })
	assert.Equal(t, "$.a[0]", MustCompile(" $.a[0] ").String())
}
