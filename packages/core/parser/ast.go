package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/mig/packages/jsonpath"
)

type File struct {
	Path      string
	TestCases []*TestCase
}

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// HasBody reports whether requests with this method carry the payload.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return m, true
	}
	return "", false
}

type TestCase struct {
	Name        string
	Description string
	Author      string
	Method      Method
	URL         string
	StatusCode  int
	Headers     []*Field
	Payload     []*Field
	Assertions  []Assertion
	Line        int
	Index       int

	// ConfigErr is set when one of the assertions could not be compiled.
	// Such a test case is reported as failed and never sent.
	ConfigErr *ConfigError
}

// Header returns the value of the named header, matched case-insensitively.
func (tc *TestCase) Header(name string) (string, bool) {
	for _, h := range tc.Headers {
		if strings.EqualFold(h.Key, name) {
			return h.Value, true
		}
	}
	return "", false
}

type Field struct {
	Key   string
	Value string
	Line  int
}

// Assertion is one of *JSONPathExists, *JSONPathValue, *HeaderExists or
// *HeaderValue.
type Assertion interface {
	Kind() AssertionKind
	Target() string
	SourceLine() int
	assertion()
}

type AssertionKind int

const (
	KindJSONPathExists AssertionKind = iota
	KindJSONPathValue
	KindHeaderExists
	KindHeaderValue
)

func (k AssertionKind) String() string {
	switch k {
	case KindJSONPathExists:
		return "JSONPathExists"
	case KindJSONPathValue:
		return "JSONPathValue"
	case KindHeaderExists:
		return "HeaderExists"
	case KindHeaderValue:
		return "HeaderValue"
	default:
		return "unknown"
	}
}

func parseAssertionKind(s string) (AssertionKind, bool) {
	switch s {
	case "JSONPathExists":
		return KindJSONPathExists, true
	case "JSONPathValue":
		return KindJSONPathValue, true
	case "HeaderExists":
		return KindHeaderExists, true
	case "HeaderValue":
		return KindHeaderValue, true
	}
	return 0, false
}

type JSONPathExists struct {
	Expr string
	// Path is nil when Expr failed to compile; see TestCase.ConfigErr.
	Path *jsonpath.Path
	Line int
}

type JSONPathValue struct {
	Expr     string
	Path     *jsonpath.Path
	Expected Literal
	Line     int
}

type HeaderExists struct {
	Name string
	Line int
}

type HeaderValue struct {
	Name     string
	Expected string
	Line     int
}

func (a *JSONPathExists) Kind() AssertionKind { return KindJSONPathExists }
func (a *JSONPathValue) Kind() AssertionKind  { return KindJSONPathValue }
func (a *HeaderExists) Kind() AssertionKind   { return KindHeaderExists }
func (a *HeaderValue) Kind() AssertionKind    { return KindHeaderValue }

func (a *JSONPathExists) Target() string { return a.Expr }
func (a *JSONPathValue) Target() string  { return a.Expr }
func (a *HeaderExists) Target() string   { return a.Name }
func (a *HeaderValue) Target() string    { return a.Name }

func (a *JSONPathExists) SourceLine() int { return a.Line }
func (a *JSONPathValue) SourceLine() int  { return a.Line }
func (a *HeaderExists) SourceLine() int   { return a.Line }
func (a *HeaderValue) SourceLine() int    { return a.Line }

func (*JSONPathExists) assertion() {}
func (*JSONPathValue) assertion()  {}
func (*HeaderExists) assertion()   {}
func (*HeaderValue) assertion()    {}

// Expected returns the textual expected value of a, or "" for existence checks.
func Expected(a Assertion) string {
	switch a := a.(type) {
	case *JSONPathValue:
		return a.Expected.String()
	case *HeaderValue:
		return a.Expected
	default:
		return ""
	}
}

type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralInt:
		return "integer"
	case LiteralFloat:
		return "float"
	case LiteralString:
		return "string"
	case LiteralBool:
		return "boolean"
	default:
		return "unknown"
	}
}

type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Raw   string
}

func (l Literal) IsNumeric() bool {
	return l.Kind == LiteralInt || l.Kind == LiteralFloat
}

// Number returns the literal as a float64; only meaningful when IsNumeric.
func (l Literal) Number() float64 {
	if l.Kind == LiteralInt {
		return float64(l.Int)
	}
	return l.Float
}

func (l Literal) String() string {
	switch l.Kind {
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	case LiteralFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case LiteralString:
		return strconv.Quote(l.Str)
	case LiteralBool:
		return strconv.FormatBool(l.Bool)
	default:
		return l.Raw
	}
}

type ParseError struct {
	File    string
	Line    int
	Record  string
	Message string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteByte(':')
	}
	if e.Line > 0 {
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteByte(':')
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	if e.Record != "" {
		fmt.Fprintf(&b, "record %q: ", e.Record)
	}
	b.WriteString(e.Message)
	return b.String()
}

// ConfigError reports an assertion that is well-formed at the line level but
// cannot be evaluated, such as a malformed JSON path.
type ConfigError struct {
	Record    string
	Assertion string
	Line      int
	Message   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("record %q, line %d: assertion %q: %s", e.Record, e.Line, e.Assertion, e.Message)
}
