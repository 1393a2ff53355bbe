// Package testutil provides a fixture API used by package tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// ItemsBody is the document served by /items.
const ItemsBody = `{"data":{"items":[{"id":123,"name":"Example Item","price":9.5,"active":true}]}}`

// EmptyBody is the document served by /empty.
const EmptyBody = `{"data":{}}`

// NewServer starts the fixture API and closes it when the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Router())
	t.Cleanup(srv.Close)
	return srv
}

// Router mounts the fixture routes:
//
//	GET  /items          canned JSON document
//	GET  /empty          {"data":{}}
//	GET  /text           plain text body
//	GET  /slow?delay=1s  JSON after a delay, aborted when the client goes away
//	*    /echo           method, headers and body of the request as JSON
//	*    /status/{code}  empty response with the given status
//	GET  /redirect       302 to /items
//	GET  /broken         a response that is not HTTP
//	GET  /truncated      a body shorter than its Content-Length
func Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ItemsBody)
	})
	r.Get("/empty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, EmptyBody)
	})
	r.Get("/text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "hello")
	})
	r.Get("/slow", slow)
	r.HandleFunc("/echo", echo)
	r.HandleFunc("/status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(chi.URLParam(r, "code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
	})
	r.Get("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/items", http.StatusFound)
	})
	r.Get("/broken", hijack("NOT HTTP AT ALL\r\n\r\n"))
	r.Get("/truncated", hijack("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 100\r\n\r\n{\"da"))

	return r
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func slow(w http.ResponseWriter, r *http.Request) {
	delay := time.Second
	if d, err := time.ParseDuration(r.URL.Query().Get("delay")); err == nil {
		delay = d
	}

	select {
	case <-time.After(delay):
		writeJSON(w, http.StatusOK, `{"slow":true}`)
	case <-r.Context().Done():
	}
}

func echo(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	out := map[string]any{
		"method":  r.Method,
		"headers": headers,
		"body":    string(body),
	}
	if json.Valid(body) {
		out["json"] = json.RawMessage(body)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func hijack(raw string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString(raw)
		_ = buf.Flush()
	}
}
