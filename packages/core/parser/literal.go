package parser

import (
	"math"
	"strconv"
	"strings"
)

// ParseLiteral interprets the right-hand side of a comparison. It tries an
// integer, a decimal float, a double-quoted string and a boolean in that
// order, and falls back to the text as an unquoted string.
func ParseLiteral(s string) Literal {
	s = strings.TrimSpace(s)
	lit := Literal{Raw: s}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		lit.Kind = LiteralInt
		lit.Int = i
		return lit
	}

	if isDecimal(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			lit.Kind = LiteralFloat
			lit.Float = f
			return lit
		}
	}

	if unq, ok := unquote(s); ok {
		lit.Kind = LiteralString
		lit.Str = unq
		return lit
	}

	switch s {
	case "true":
		lit.Kind = LiteralBool
		lit.Bool = true
		return lit
	case "false":
		lit.Kind = LiteralBool
		return lit
	}

	lit.Kind = LiteralString
	lit.Str = s
	return lit
}

// isDecimal rejects the forms strconv.ParseFloat accepts beyond plain
// decimal notation: hex floats, underscores, "inf" and "nan".
func isDecimal(s string) bool {
	digits := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
		default:
			return false
		}
	}
	return digits
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return s, false
}
