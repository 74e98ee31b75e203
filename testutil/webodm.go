package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeWebODM is an in-process WebODM answering canned responses.
// Routes are matched on method and request URI, query included.
type FakeWebODM struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]fakeResponse
	requests []RecordedRequest
}

type fakeResponse struct {
	status int
	body   []byte
}

// RecordedRequest is a request received by FakeWebODM
type RecordedRequest struct {
	Method string
	URI    string
	Header http.Header
	Body   string
}

// NewFakeWebODM starts a fake WebODM closed with the test
func NewFakeWebODM(t *testing.T) *FakeWebODM {
	t.Helper()
	f := &FakeWebODM{routes: map[string]fakeResponse{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Handle answers method uri with a raw body
func (f *FakeWebODM) Handle(method, uri string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+uri] = fakeResponse{status: status, body: []byte(body)}
}

// HandleJSON answers method uri with v encoded as JSON and a 200
func (f *FakeWebODM) HandleJSON(t *testing.T, method, uri string, v any) {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode fixture for %s: %v", uri, err)
	}
	f.Handle(method, uri, http.StatusOK, string(body))
}

// Requests returns the received requests in arrival order
func (f *FakeWebODM) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

func (f *FakeWebODM) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		URI:    r.URL.RequestURI(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	resp, ok := f.routes[r.Method+" "+r.URL.RequestURI()]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not found."}`))
		return
	}
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}
