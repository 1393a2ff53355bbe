package parser

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/mig/packages/jsonpath"
)

type blockKind int

const (
	blockNone blockKind = iota
	blockHeaders
	blockPayload
	blockAssertions
)

func (b blockKind) String() string {
	switch b {
	case blockHeaders:
		return "Headers"
	case blockPayload:
		return "Payload"
	case blockAssertions:
		return "Assertions"
	default:
		return ""
	}
}

type Parser struct {
	lexer *Lexer
	file  string
	names map[string]int
}

func NewParser(input string) *Parser {
	return &Parser{
		lexer: NewLexer(input),
		names: make(map[string]int),
	}
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	p := NewParser(input)
	p.file = filename
	return p.ParseFile()
}

// ParseFile parses every record. The first malformed record aborts the parse
// and no test cases are returned.
func (p *Parser) ParseFile() (*File, error) {
	file := &File{Path: p.file}

	var record []Line
	flush := func() error {
		tc, err := p.parseRecord(record, len(file.TestCases))
		record = record[:0]
		if err != nil {
			return err
		}
		if tc != nil {
			file.TestCases = append(file.TestCases, tc)
		}
		return nil
	}

	for {
		line, ok := p.lexer.Next()
		if !ok {
			break
		}
		if line.Kind == LineSeparator {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		record = append(record, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return file, nil
}

type recordState struct {
	p      *Parser
	tc     *TestCase
	name   string
	seen   map[string]int
	block  blockKind
	indent string
}

func (r *recordState) errorf(line int, format string, args ...any) error {
	return &ParseError{
		File:    r.p.file,
		Line:    line,
		Record:  r.name,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) parseRecord(lines []Line, index int) (*TestCase, error) {
	start := 0
	for _, l := range lines {
		if l.Kind == LineEntry {
			start = l.Number
			break
		}
	}
	if start == 0 {
		return nil, nil
	}

	r := &recordState{
		p:    p,
		tc:   &TestCase{Line: start, Index: index},
		name: recordName(lines),
		seen: make(map[string]int),
	}

	for _, l := range lines {
		switch l.Kind {
		case LineBlank:
			r.block = blockNone
		case LineComment:
		case LineEntry:
			var err error
			if l.Indent == "" {
				err = r.topLevel(l)
			} else {
				err = r.child(l)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	for _, key := range []string{"TestCase", "Method", "URL", "StatusCode"} {
		if _, ok := r.seen[key]; !ok {
			return nil, r.errorf(start, "missing required field %q", key)
		}
	}

	if first, ok := p.names[r.tc.Name]; ok {
		return nil, r.errorf(r.seen["TestCase"], "duplicate test case name (first defined at line %d)", first)
	}
	p.names[r.tc.Name] = r.seen["TestCase"]

	return r.tc, nil
}

// recordName finds the record's TestCase value ahead of parsing so errors
// raised before that line can still name the record.
func recordName(lines []Line) string {
	for _, l := range lines {
		if l.Kind == LineEntry && l.Indent == "" && l.HasColon && l.Key == "TestCase" {
			return l.Value
		}
	}
	return ""
}

func (r *recordState) topLevel(l Line) error {
	if !l.HasColon {
		return r.errorf(l.Number, "expected \"Key: value\", got %q", l.Text)
	}

	if first, ok := r.seen[l.Key]; ok {
		return r.errorf(l.Number, "duplicate key %q (first defined at line %d)", l.Key, first)
	}

	r.block = blockNone
	tc := r.tc

	switch l.Key {
	case "TestCase":
		if l.Value == "" {
			return r.errorf(l.Number, "TestCase name is empty")
		}
		tc.Name = l.Value
	case "Description":
		tc.Description = l.Value
	case "Author":
		tc.Author = l.Value
	case "Method":
		m, ok := ParseMethod(l.Value)
		if !ok {
			return r.errorf(l.Number, "invalid method %q (expected GET, POST, PUT, PATCH or DELETE)", l.Value)
		}
		tc.Method = m
	case "URL":
		if err := validateURL(l.Value); err != nil {
			return r.errorf(l.Number, "%v", err)
		}
		tc.URL = l.Value
	case "StatusCode":
		code, err := strconv.Atoi(l.Value)
		if err != nil {
			return r.errorf(l.Number, "StatusCode %q is not an integer", l.Value)
		}
		if code < 100 || code > 599 {
			return r.errorf(l.Number, "StatusCode %d out of range 100-599", code)
		}
		tc.StatusCode = code
	case "Headers", "Payload", "Assertions":
		if l.Value != "" {
			return r.errorf(l.Number, "%s starts a block and takes no value, got %q", l.Key, l.Value)
		}
		switch l.Key {
		case "Headers":
			r.block = blockHeaders
		case "Payload":
			r.block = blockPayload
		default:
			r.block = blockAssertions
		}
		r.indent = ""
	default:
		return r.errorf(l.Number, "unknown key %q", l.Key)
	}

	r.seen[l.Key] = l.Number
	return nil
}

func (r *recordState) child(l Line) error {
	if r.block == blockNone {
		return r.errorf(l.Number, "indented line outside of a Headers, Payload or Assertions block")
	}
	if r.indent == "" {
		r.indent = l.Indent
	} else if l.Indent != r.indent {
		return r.errorf(l.Number, "inconsistent indentation in %s block", r.block)
	}
	if !l.HasColon {
		return r.errorf(l.Number, "expected \"key: value\" in %s block, got %q", r.block, strings.TrimSpace(l.Text))
	}
	if l.Key == "" {
		return r.errorf(l.Number, "empty key in %s block", r.block)
	}

	switch r.block {
	case blockHeaders:
		if _, ok := r.tc.Header(l.Key); ok {
			return r.errorf(l.Number, "duplicate header %q", l.Key)
		}
		r.tc.Headers = append(r.tc.Headers, &Field{Key: l.Key, Value: l.Value, Line: l.Number})
	case blockPayload:
		for _, f := range r.tc.Payload {
			if f.Key == l.Key {
				return r.errorf(l.Number, "duplicate payload key %q", l.Key)
			}
		}
		r.tc.Payload = append(r.tc.Payload, &Field{Key: l.Key, Value: l.Value, Line: l.Number})
	case blockAssertions:
		a, err := r.assertion(l)
		if err != nil {
			return err
		}
		r.tc.Assertions = append(r.tc.Assertions, a)
	}
	return nil
}

func (r *recordState) assertion(l Line) (Assertion, error) {
	kind, ok := parseAssertionKind(l.Key)
	if !ok {
		return nil, r.errorf(l.Number, "unknown assertion kind %q", l.Key)
	}

	switch kind {
	case KindJSONPathExists, KindHeaderExists:
		if l.Value == "" {
			return nil, r.errorf(l.Number, "%s requires a value", kind)
		}
		if strings.Contains(l.Value, " == ") {
			return nil, r.errorf(l.Number, "%s takes a bare %s, not a comparison", kind, targetNoun(kind))
		}
		if kind == KindHeaderExists {
			return &HeaderExists{Name: l.Value, Line: l.Number}, nil
		}
		return &JSONPathExists{Expr: l.Value, Path: r.compile(l, l.Value), Line: l.Number}, nil
	}

	lhs, rhs, ok := strings.Cut(l.Value, " == ")
	lhs, rhs = strings.TrimSpace(lhs), strings.TrimSpace(rhs)
	if !ok {
		return nil, r.errorf(l.Number, "%s requires \"<%s> == <value>\"", kind, targetNoun(kind))
	}
	if lhs == "" || rhs == "" {
		return nil, r.errorf(l.Number, "%s comparison has an empty side", kind)
	}

	if kind == KindHeaderValue {
		expected, _ := unquote(rhs)
		return &HeaderValue{Name: lhs, Expected: expected, Line: l.Number}, nil
	}
	return &JSONPathValue{
		Expr:     lhs,
		Path:     r.compile(l, lhs),
		Expected: ParseLiteral(rhs),
		Line:     l.Number,
	}, nil
}

// compile records the first path error on the test case and returns nil for
// any path that does not compile.
func (r *recordState) compile(l Line, expr string) *jsonpath.Path {
	path, err := jsonpath.Compile(expr)
	if err != nil {
		if r.tc.ConfigErr == nil {
			r.tc.ConfigErr = &ConfigError{
				Record:    r.name,
				Assertion: l.Key + ": " + l.Value,
				Line:      l.Number,
				Message:   err.Error(),
			}
		}
		return nil
	}
	return path
}

func targetNoun(k AssertionKind) string {
	if k == KindHeaderExists || k == KindHeaderValue {
		return "header name"
	}
	return "path"
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}
