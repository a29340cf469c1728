package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"streamliner/internal/dispatch"
	"streamliner/internal/item"
)

type fakeRunner struct {
	env   item.Envelope
	err   error
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, command, rawURL string) (item.Envelope, error) {
	f.calls = append(f.calls, command+" "+rawURL)
	return f.env, f.err
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetItems(t *testing.T) {
	r := &fakeRunner{env: item.NewEnvelope([]item.Item{
		item.FromFields(item.RSS, item.Fields{URL: item.String("https://example.com/1"), Title: item.String("One")}),
	})}
	srv := NewServer(NewHandler(r), "", nil)

	target := "/v1/rss?url=" + url.QueryEscape("https://example.com/feed.xml")
	w := do(t, srv, httptest.NewRequest(http.MethodGet, target, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(r.calls) != 1 || r.calls[0] != "rss https://example.com/feed.xml" {
		t.Errorf("unexpected runner calls %v", r.calls)
	}
	if got := w.Header().Get("X-Item-Count"); got != "1" {
		t.Errorf("expected item count header 1, got %q", got)
	}

	var env struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(env.Items) != 1 || env.Items[0]["source"] != "rss" || env.Items[0]["needs_further_processing"] != true {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestGetItemsEmptyEnvelope(t *testing.T) {
	srv := NewServer(NewHandler(&fakeRunner{env: item.NewEnvelope(nil)}), "", nil)
	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/v1/github?url=https://github.com/acme", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != `{"items":[]}` {
		t.Errorf("expected empty items list, got %s", w.Body.String())
	}
}

func TestGetItemsErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown command", err: fmt.Errorf("%w %q", dispatch.ErrUnknownCommand, "svn"), status: http.StatusBadRequest},
		{name: "missing url", err: fmt.Errorf("%w for %q", dispatch.ErrMissingURL, "rss"), status: http.StatusBadRequest},
		{name: "upstream", err: errors.New("HTTP 500 from upstream"), status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(NewHandler(&fakeRunner{err: tt.err}), "", nil)
			w := do(t, srv, httptest.NewRequest(http.MethodGet, "/v1/svn", nil))
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	srv := NewServer(NewHandler(&fakeRunner{}), "", nil)
	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/v1/classify?url="+url.QueryEscape("https://github.com/acme/widget"), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["command"] != "github" {
		t.Errorf("expected github, got %v", body)
	}

	w = do(t, srv, httptest.NewRequest(http.MethodGet, "/v1/classify", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", w.Code)
	}
}

func TestAuth(t *testing.T) {
	r := &fakeRunner{env: item.NewEnvelope(nil)}
	srv := NewServer(NewHandler(r), "secret", nil)

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/v1/http?url=https://x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/http?url=https://x", nil)
	req.Header.Set("X-API-Key", "wrong")
	if w := do(t, srv, req); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/http?url=https://x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if w := do(t, srv, req); w.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer key, got %d", w.Code)
	}
	if len(r.calls) != 1 {
		t.Errorf("expected only the authorized request to reach the runner, got %v", r.calls)
	}

	if w := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Errorf("expected health to stay public, got %d", w.Code)
	}
}
