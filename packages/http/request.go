package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/parser"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// BuildRequest converts a test case into a request. For POST, PUT and PATCH
// the payload becomes a JSON object of string values with sorted keys.
func BuildRequest(tc *parser.TestCase) (*Request, error) {
	req := NewRequest(string(tc.Method), tc.URL)
	for _, h := range tc.Headers {
		req.SetHeader(h.Key, h.Value)
	}

	if !tc.Method.HasBody() {
		return req, nil
	}

	payload := make(map[string]string, len(tc.Payload))
	for _, f := range tc.Payload {
		payload[f.Key] = f.Value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload of %q: %w", tc.Name, err)
	}
	req.SetBody(body)

	if _, ok := tc.Header("Content-Type"); !ok {
		req.SetHeader("Content-Type", "application/json")
	}
	return req, nil
}
