package assertions

import (
	"fmt"
	"strconv"

	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/abdul-hamid-achik/mig/packages/http"
	"github.com/abdul-hamid-achik/mig/packages/jsonpath"
	"github.com/tidwall/gjson"
)

type Result struct {
	Assertion parser.Assertion
	Passed    bool
	// Detail explains a failure; it is empty when the assertion passed.
	Detail string
	// Actual is the observed value rendered for reports, if any was found.
	Actual string
}

// Evaluator checks assertions against one response. It never mutates the
// response and can be shared between goroutines.
type Evaluator struct {
	response *http.Response
}

func NewEvaluator(resp *http.Response) *Evaluator {
	return &Evaluator{response: resp}
}

// Evaluate is the single-assertion form of Evaluator.Evaluate.
func Evaluate(resp *http.Response, a parser.Assertion) (bool, string) {
	r := NewEvaluator(resp).Evaluate(a)
	return r.Passed, r.Detail
}

// EvaluateAll evaluates every assertion in declaration order.
func EvaluateAll(resp *http.Response, list []parser.Assertion) []*Result {
	e := NewEvaluator(resp)
	results := make([]*Result, 0, len(list))
	for _, a := range list {
		results = append(results, e.Evaluate(a))
	}
	return results
}

func (e *Evaluator) Evaluate(a parser.Assertion) *Result {
	result := &Result{Assertion: a}

	switch a := a.(type) {
	case *parser.HeaderExists:
		if v, ok := e.response.Header(a.Name); ok {
			result.Passed = true
			result.Actual = v
		} else {
			result.Detail = fmt.Sprintf("header %q not present", a.Name)
		}

	case *parser.HeaderValue:
		v, ok := e.response.Header(a.Name)
		switch {
		case !ok:
			result.Detail = fmt.Sprintf("header %q not present", a.Name)
		case v != a.Expected:
			result.Actual = v
			result.Detail = fmt.Sprintf("header %q: expected %q, got %q", a.Name, a.Expected, v)
		default:
			result.Actual = v
			result.Passed = true
		}

	case *parser.JSONPathExists:
		nodes, detail := e.resolve(a.Expr, a.Path)
		if detail != "" {
			result.Detail = detail
			break
		}
		result.Passed = true
		result.Actual = display(nodes[0])

	case *parser.JSONPathValue:
		nodes, detail := e.resolve(a.Expr, a.Path)
		if detail != "" {
			result.Detail = detail
			break
		}
		if len(nodes) > 1 {
			result.Detail = fmt.Sprintf("path %s matched %d nodes, expected exactly one", a.Expr, len(nodes))
			break
		}
		result.Actual = display(nodes[0])
		result.Passed, result.Detail = compare(nodes[0], a.Expected)

	default:
		result.Detail = fmt.Sprintf("unsupported assertion %T", a)
	}

	return result
}

func (e *Evaluator) resolve(expr string, path *jsonpath.Path) ([]gjson.Result, string) {
	if path == nil {
		return nil, fmt.Sprintf("path %s is not a valid JSON path", expr)
	}
	doc, ok := e.response.Document()
	if !ok {
		return nil, "body is not JSON"
	}
	nodes := path.Resolve(doc)
	if len(nodes) == 0 {
		return nil, fmt.Sprintf("no node at path %s", expr)
	}
	return nodes, ""
}

// compare applies the literal coercion rules: numbers compare numerically,
// strings and booleans exactly, and a type mismatch always fails.
func compare(node gjson.Result, want parser.Literal) (bool, string) {
	var equal bool

	switch want.Kind {
	case parser.LiteralInt, parser.LiteralFloat:
		if node.Type != gjson.Number {
			return false, mismatch(node, want)
		}
		if want.Kind == parser.LiteralInt {
			if i, err := strconv.ParseInt(node.Raw, 10, 64); err == nil {
				equal = i == want.Int
				break
			}
		}
		equal = node.Float() == want.Number()

	case parser.LiteralString:
		if node.Type != gjson.String {
			return false, mismatch(node, want)
		}
		equal = node.Str == want.Str

	case parser.LiteralBool:
		if node.Type != gjson.True && node.Type != gjson.False {
			return false, mismatch(node, want)
		}
		equal = node.Bool() == want.Bool
	}

	if equal {
		return true, ""
	}
	return false, fmt.Sprintf("expected %s, got %s", want, display(node))
}

func mismatch(node gjson.Result, want parser.Literal) string {
	return fmt.Sprintf("type mismatch: expected %s %s, got %s %s", want.Kind, want, jsonType(node), display(node))
}

func jsonType(node gjson.Result) string {
	switch node.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		if node.IsArray() {
			return "array"
		}
		return "object"
	}
}

func display(node gjson.Result) string {
	if node.Type == gjson.String {
		return strconv.Quote(node.Str)
	}
	return node.Raw
}
