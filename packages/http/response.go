package http

import (
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Response is immutable once returned by the client. Its JSON document is
// parsed on first use and shared by every later lookup.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration

	docOnce sync.Once
	doc     gjson.Result
	isJSON  bool
}

// Document returns the parsed body and false when the body is not valid JSON.
func (r *Response) Document() (gjson.Result, bool) {
	r.docOnce.Do(func() {
		if gjson.ValidBytes(r.Body) {
			r.doc = gjson.ParseBytes(r.Body)
			r.isJSON = true
		}
	})
	return r.doc, r.isJSON
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the value of the named header and whether it was present.
func (r *Response) Header(key string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (r *Response) ContentType() string {
	ct, _ := r.Header("Content-Type")
	return ct
}

func (r *Response) Size() int {
	return len(r.Body)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
