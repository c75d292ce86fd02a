package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Response is a canned upstream reply.
type Response struct {
	Status int
	Body   string
}

// Request is a request received by Upstream.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Upstream is an httptest server standing in for the TMAP API. Paths without
// a configured response answer 404.
type Upstream struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []Request
}

// NewUpstream starts a fake upstream that is closed when the test ends.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	u := &Upstream{responses: make(map[string]Response)}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// URL returns the base URL of the fake upstream.
func (u *Upstream) URL() string {
	return u.Server.URL
}

// Respond configures the reply for path.
func (u *Upstream) Respond(path string, status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.responses[path] = Response{Status: status, Body: body}
}

// Requests returns the requests received so far.
func (u *Upstream) Requests() []Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Request, len(u.requests))
	copy(out, u.requests)
	return out
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.requests = append(u.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	resp, ok := u.responses[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
