package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_Sample(t *testing.T) {
	file, err := ParseFile("testdata/sample.mig")
	require.NoError(t, err)
	require.Len(t, file.TestCases, 2)

	first, second := file.TestCases[0], file.TestCases[1]
	assert.Equal(t, "Example Test Case 1", first.Name)
	assert.Equal(t, MethodGet, first.Method)
	assert.Equal(t, 400, first.StatusCode)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 2, first.Line)

	assert.Equal(t, "Example Test Case 2", second.Name)
	assert.Equal(t, MethodGet, second.Method)
	assert.Equal(t, 200, second.StatusCode)
	assert.Equal(t, 1, second.Index)
	require.Len(t, second.Assertions, 4)
	assert.Nil(t, second.ConfigErr)
}

func TestParser_FullRecord(t *testing.T) {
	input := `TestCase: Create item
Description: creates one item
Author: qa
Method: post
URL: http://localhost:8080/items
StatusCode: 201
Headers:
  X-Request-Id: abc
  Authorization: Bearer a:b
Payload:
  name: widget
  count: 3
Assertions:
  JSONPathExists: $.id
  JSONPathValue: $.count == 3
  JSONPathValue: $.price == 9.5
  JSONPathValue: $.name == "widget"
  JSONPathValue: $.active == true
  JSONPathValue: $.label == plain text
  HeaderExists: Location
  HeaderValue: Content-Type == "application/json"
`

	file, err := Parse(input, "items.mig")
	require.NoError(t, err)
	require.Len(t, file.TestCases, 1)

	tc := file.TestCases[0]
	assert.Equal(t, "Create item", tc.Name)
	assert.Equal(t, "creates one item", tc.Description)
	assert.Equal(t, "qa", tc.Author)
	assert.Equal(t, MethodPost, tc.Method)
	assert.Equal(t, "http://localhost:8080/items", tc.URL)
	assert.Equal(t, 201, tc.StatusCode)

	require.Len(t, tc.Headers, 2)
	assert.Equal(t, "Bearer a:b", tc.Headers[1].Value)
	v, ok := tc.Header("x-request-id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.Len(t, tc.Payload, 2)
	assert.Equal(t, "name", tc.Payload[0].Key)
	assert.Equal(t, "3", tc.Payload[1].Value)

	require.Len(t, tc.Assertions, 8)

	exists, ok := tc.Assertions[0].(*JSONPathExists)
	require.True(t, ok)
	assert.Equal(t, "$.id", exists.Expr)
	assert.NotNil(t, exists.Path)

	kinds := []LiteralKind{LiteralInt, LiteralFloat, LiteralString, LiteralBool, LiteralString}
	for i, want := range kinds {
		a, ok := tc.Assertions[i+1].(*JSONPathValue)
		require.True(t, ok, "assertion %d", i+1)
		assert.Equal(t, want, a.Expected.Kind, "assertion %d", i+1)
	}
	assert.Equal(t, "widget", tc.Assertions[3].(*JSONPathValue).Expected.Str)
	assert.Equal(t, "plain text", tc.Assertions[5].(*JSONPathValue).Expected.Str)

	hv, ok := tc.Assertions[7].(*HeaderValue)
	require.True(t, ok)
	assert.Equal(t, "Content-Type", hv.Name)
	assert.Equal(t, "application/json", hv.Expected)
	assert.Equal(t, 21, hv.Line)
}

func TestParser_CommentsAndBlankLines(t *testing.T) {
	input := `# leading comment

---
# only comments in this record
---
TestCase: a
Method: GET
URL: https://example.com
StatusCode: 200
Assertions:
  # comment inside a block
  HeaderExists: Date
    # indented comment with a different indent
  HeaderExists: Server
---
`
	file, err := Parse(input, "c.mig")
	require.NoError(t, err)
	require.Len(t, file.TestCases, 1)
	assert.Len(t, file.TestCases[0].Assertions, 2)
	assert.Equal(t, 0, file.TestCases[0].Index)
}

func TestParser_EmptyInput(t *testing.T) {
	file, err := Parse("", "empty.mig")
	require.NoError(t, err)
	assert.Empty(t, file.TestCases)
}

func TestParser_SeparatorWithTrailingWhitespace(t *testing.T) {
	input := "TestCase: a\r\nMethod: GET\r\nURL: https://example.com\r\nStatusCode: 200\r\n---  \r\nTestCase: b\r\nMethod: DELETE\r\nURL: https://example.com/1\r\nStatusCode: 204\r\n"
	file, err := Parse(input, "crlf.mig")
	require.NoError(t, err)
	require.Len(t, file.TestCases, 2)
	assert.Equal(t, MethodDelete, file.TestCases[1].Method)
}

func TestParser_MissingMethod(t *testing.T) {
	input := `TestCase: first
Method: GET
URL: https://example.com
StatusCode: 200
---
TestCase: no method here
URL: https://example.com
StatusCode: 200
`
	file, err := Parse(input, "missing.mig")
	require.Error(t, err)
	assert.Nil(t, file)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "no method here", perr.Record)
	assert.Equal(t, 6, perr.Line)
	assert.Contains(t, perr.Message, `"Method"`)
	assert.Equal(t, `missing.mig:6: record "no method here": missing required field "Method"`, err.Error())
}

func TestParser_Errors(t *testing.T) {
	base := "TestCase: t\nMethod: GET\nURL: https://example.com\nStatusCode: 200\n"

	tests := []struct {
		name    string
		input   string
		line    int
		message string
	}{
		{"unknown key", base + "Timeout: 5\n", 5, `unknown key "Timeout"`},
		{"lowercase key", "testcase: t\n", 1, `unknown key "testcase"`},
		{"duplicate scalar", base + "Method: POST\n", 5, `duplicate key "Method"`},
		{"bad method", "TestCase: t\nMethod: FETCH\n", 2, "invalid method"},
		{"status not integer", "TestCase: t\nStatusCode: ok\n", 2, "not an integer"},
		{"status out of range", "TestCase: t\nStatusCode: 99\n", 2, "out of range"},
		{"relative url", "TestCase: t\nURL: /items\n", 2, "scheme must be http or https"},
		{"url without host", "TestCase: t\nURL: http://\n", 2, "missing host"},
		{"value on block header", base + "Headers: x\n", 5, "takes no value"},
		{"indent outside block", base + "  Accept: x\n", 5, "outside of a Headers"},
		{"inconsistent indent", base + "Headers:\n  A: 1\n    B: 2\n", 7, "inconsistent indentation"},
		{"child without colon", base + "Headers:\n  Accept\n", 6, `expected "key: value"`},
		{"top level without colon", base + "oops\n", 5, `expected "Key: value"`},
		{"unknown assertion", base + "Assertions:\n  BodyContains: x\n", 6, `unknown assertion kind "BodyContains"`},
		{"value without comparison", base + "Assertions:\n  JSONPathValue: $.a\n", 6, "requires"},
		{"empty comparison side", base + "Assertions:\n  HeaderValue:  == x\n", 6, "requires"},
		{"exists without value", base + "Assertions:\n  HeaderExists:\n", 6, "requires a value"},
		{"exists with comparison", base + "Assertions:\n  JSONPathExists: $.a == 1\n", 6, "not a comparison"},
		{"blank line closes block", base + "Headers:\n  A: 1\n\n  B: 2\n", 8, "outside of a Headers"},
		{"duplicate header", base + "Headers:\n  Accept: a\n  accept: b\n", 7, "duplicate header"},
		{"empty name", "TestCase:\n", 1, "name is empty"},
		{"missing status", "TestCase: t\nMethod: GET\nURL: https://example.com\n", 1, `missing required field "StatusCode"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(tt.input, "bad.mig")
			require.Error(t, err)
			assert.Nil(t, file)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Message, tt.message)
			assert.Equal(t, "bad.mig", perr.File)
		})
	}
}

func TestParser_ErrorNamesRecordBeforeNameLine(t *testing.T) {
	input := "Method: NOPE\nTestCase: late name\n"
	_, err := Parse(input, "")
	require.Error(t, err)
	assert.Equal(t, `1: record "late name": invalid method "NOPE" (expected GET, POST, PUT, PATCH or DELETE)`, err.Error())
}

func TestParser_DuplicateName(t *testing.T) {
	input := `TestCase: same
Method: GET
URL: https://example.com
StatusCode: 200
---
TestCase: same
Method: GET
URL: https://example.com
StatusCode: 200
`
	_, err := Parse(input, "dup.mig")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 6, perr.Line)
	assert.Contains(t, perr.Message, "first defined at line 1")
}

func TestParser_MalformedPathIsConfigError(t *testing.T) {
	input := `TestCase: bad path
Method: GET
URL: https://example.com
StatusCode: 200
Assertions:
  JSONPathExists: $..items
  JSONPathValue: $.items[-1] == 1
  HeaderExists: Date
`
	file, err := Parse(input, "cfg.mig")
	require.NoError(t, err)
	require.Len(t, file.TestCases, 1)

	tc := file.TestCases[0]
	require.NotNil(t, tc.ConfigErr)
	assert.Equal(t, "bad path", tc.ConfigErr.Record)
	assert.Equal(t, 6, tc.ConfigErr.Line)
	assert.Equal(t, "JSONPathExists: $..items", tc.ConfigErr.Assertion)
	assert.Contains(t, tc.ConfigErr.Message, "recursive descent")

	require.Len(t, tc.Assertions, 3)
	assert.Nil(t, tc.Assertions[0].(*JSONPathExists).Path)
	assert.Nil(t, tc.Assertions[1].(*JSONPathValue).Path)
}

func TestParseMethod(t *testing.T) {
	for _, s := range []string{"get", "Post", "PUT", "patch", "delete"} {
		_, ok := ParseMethod(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseMethod("HEAD")
	assert.False(t, ok)

	assert.True(t, MethodPatch.HasBody())
	assert.False(t, MethodGet.HasBody())
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		kind LiteralKind
		str  string
	}{
		{"123", LiteralInt, "123"},
		{"-7", LiteralInt, "-7"},
		{"123.0", LiteralFloat, "123"},
		{"1e3", LiteralFloat, "1000"},
		{`"123"`, LiteralString, `"123"`},
		{`""`, LiteralString, `""`},
		{"true", LiteralBool, "true"},
		{"false", LiteralBool, "false"},
		{"True", LiteralString, `"True"`},
		{"NaN", LiteralString, `"NaN"`},
		{"Inf", LiteralString, `"Inf"`},
		{"0x10", LiteralString, `"0x10"`},
		{"hello world", LiteralString, `"hello world"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lit := ParseLiteral(tt.in)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.str, lit.String())
			assert.Equal(t, tt.in, lit.Raw)
		})
	}
}

func TestTokenize(t *testing.T) {
	lines := Tokenize("A: 1\n  # c\n\n---\n  b: two words\nraw")
	require.Len(t, lines, 6)
	assert.Equal(t, LineEntry, lines[0].Kind)
	assert.Equal(t, "A", lines[0].Key)
	assert.Equal(t, "1", lines[0].Value)
	assert.Equal(t, LineComment, lines[1].Kind)
	assert.Equal(t, LineBlank, lines[2].Kind)
	assert.Equal(t, LineSeparator, lines[3].Kind)
	assert.Equal(t, "  ", lines[4].Indent)
	assert.Equal(t, "two words", lines[4].Value)
	assert.False(t, lines[5].HasColon)
	assert.Equal(t, 6, lines[5].Number)
}
