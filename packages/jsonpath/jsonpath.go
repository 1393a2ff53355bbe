// Package jsonpath compiles and resolves the restricted JSON path subset used by
// mig assertions.
//
// Supported syntax:
//   - optional root marker: $
//   - dotted field access: $.data.items
//   - one index per segment: $.data.items[0], $[2]
//   - one-level wildcard over an array: $.data.items[*].id
//
// Anything else (recursive descent, filters, slices, quoted member names,
// chained indexes) is rejected by Compile with a *SyntaxError.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type segmentKind int

const (
	segmentField segmentKind = iota
	segmentIndex
	segmentWildcard
)

type segment struct {
	kind  segmentKind
	name  string
	index int
}

// Path is a compiled JSON path. It is safe for concurrent use.
type Path struct {
	expr     string
	segments []segment
}

// SyntaxError reports an unsupported or malformed path expression.
type SyntaxError struct {
	Expr    string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid JSON path %q at offset %d: %s", e.Expr, e.Offset, e.Message)
}

// Compile parses expr into a Path.
func Compile(expr string) (*Path, error) {
	c := &compiler{expr: strings.TrimSpace(expr)}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &Path{expr: c.expr, segments: c.segments}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Path) String() string {
	return p.expr
}

// Resolve returns every node in doc addressed by the path, in document order.
// A nil slice means the path does not resolve.
func (p *Path) Resolve(doc gjson.Result) []gjson.Result {
	if !doc.Exists() {
		return nil
	}

	nodes := []gjson.Result{doc}
	for _, seg := range p.segments {
		var next []gjson.Result
		for _, n := range nodes {
			switch seg.kind {
			case segmentField:
				if !n.IsObject() {
					continue
				}
				if r := n.Get(escapeKey(seg.name)); r.Exists() {
					next = append(next, r)
				}
			case segmentIndex:
				if !n.IsArray() {
					continue
				}
				items := n.Array()
				if seg.index < len(items) {
					next = append(next, items[seg.index])
				}
			case segmentWildcard:
				if n.IsArray() {
					next = append(next, n.Array()...)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		nodes = next
	}
	return nodes
}

// escapeKey makes a member name safe to pass to gjson as a single path
// component, so characters like '.', '*', '#' and '@' match literally.
func escapeKey(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isPlainKeyChar(c) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isPlainKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == ':' ||
		c > '~'
}

type compiler struct {
	expr     string
	pos      int
	segments []segment
}

func (c *compiler) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: c.expr, Offset: c.pos, Message: fmt.Sprintf(format, args...)}
}

func (c *compiler) compile() error {
	if c.expr == "" {
		return c.errorf("empty path")
	}

	if c.expr[0] == '$' {
		c.pos++
		if c.pos == len(c.expr) {
			return nil
		}
		switch c.expr[c.pos] {
		case '[':
			if err := c.bracket(); err != nil {
				return err
			}
			if c.pos == len(c.expr) {
				return nil
			}
			if c.expr[c.pos] != '.' {
				return c.errorf("expected '.' after index")
			}
			c.pos++
		case '.':
			c.pos++
		default:
			return c.errorf("expected '.' or '[' after root marker")
		}
	}

	for {
		if err := c.field(); err != nil {
			return err
		}
		if c.pos == len(c.expr) {
			return nil
		}
		if c.expr[c.pos] == '[' {
			if err := c.bracket(); err != nil {
				return err
			}
			if c.pos == len(c.expr) {
				return nil
			}
		}
		switch c.expr[c.pos] {
		case '.':
			c.pos++
		case '[':
			return c.errorf("only one index per segment is supported")
		default:
			return c.errorf("unexpected character %q", c.expr[c.pos])
		}
	}
}

func (c *compiler) field() error {
	if c.pos == len(c.expr) {
		return c.errorf("trailing '.'")
	}
	if c.expr[c.pos] == '.' {
		return c.errorf("recursive descent ('..') is not supported")
	}

	start := c.pos
	for c.pos < len(c.expr) && c.expr[c.pos] != '.' && c.expr[c.pos] != '[' {
		switch ch := c.expr[c.pos]; ch {
		case ']', '\'', '"':
			return c.errorf("unexpected character %q in field name", ch)
		case ' ', '\t':
			return c.errorf("whitespace in field name")
		}
		c.pos++
	}

	name := c.expr[start:c.pos]
	switch name {
	case "":
		return c.errorf("expected field name")
	case "*":
		return c.errorf("wildcard field access is not supported")
	}
	c.segments = append(c.segments, segment{kind: segmentField, name: name})
	return nil
}

func (c *compiler) bracket() error {
	open := c.pos
	end := strings.IndexByte(c.expr[open:], ']')
	if end < 0 {
		return c.errorf("unterminated '['")
	}
	inner := c.expr[open+1 : open+end]
	c.pos = open + 1

	switch {
	case inner == "*":
		c.segments = append(c.segments, segment{kind: segmentWildcard})
	case inner == "":
		return c.errorf("empty index")
	case !isDigits(inner):
		if strings.ContainsAny(inner, "?(") {
			return c.errorf("filter expressions are not supported")
		}
		if strings.Contains(inner, ":") {
			return c.errorf("slices are not supported")
		}
		return c.errorf("unsupported index %q", inner)
	default:
		idx, err := strconv.Atoi(inner)
		if err != nil {
			return c.errorf("index %q out of range", inner)
		}
		c.segments = append(c.segments, segment{kind: segmentIndex, index: idx})
	}

	c.pos = open + end + 1
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
