package parser

import (
	"strings"
)

type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineSeparator
	LineEntry
)

type Line struct {
	Kind   LineKind
	Number int
	Indent string
	Key    string
	Value  string
	// HasColon is false for entry lines that have no "key:" form.
	HasColon bool
	Text     string
}

// Lexer splits a definitions file into classified lines.
type Lexer struct {
	lines []string
	pos   int
}

func NewLexer(input string) *Lexer {
	input = strings.TrimPrefix(input, "\ufeff")
	return &Lexer{lines: strings.Split(input, "\n")}
}

// Next returns the next line and false once the input is exhausted.
func (l *Lexer) Next() (Line, bool) {
	if l.pos >= len(l.lines) {
		return Line{}, false
	}
	raw := strings.TrimRight(l.lines[l.pos], " \t\r")
	l.pos++

	line := Line{Number: l.pos, Text: raw}
	trimmed := strings.TrimLeft(raw, " \t")

	switch {
	case trimmed == "":
		line.Kind = LineBlank
	case strings.HasPrefix(trimmed, "#"):
		line.Kind = LineComment
	case raw == "---":
		line.Kind = LineSeparator
	default:
		line.Kind = LineEntry
		line.Indent = raw[:len(raw)-len(trimmed)]
		if key, value, ok := strings.Cut(trimmed, ":"); ok {
			line.Key = strings.TrimSpace(key)
			line.Value = strings.TrimSpace(value)
			line.HasColon = true
		} else {
			line.Value = trimmed
		}
	}
	return line, true
}

// Tokenize returns every line of input.
func Tokenize(input string) []Line {
	l := NewLexer(input)
	var lines []Line
	for {
		line, ok := l.Next()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}
