// Package provider holds the four source adapters. Each one turns a request
// URL into a list of normalized items by calling an injected collaborator
// and mapping the native records it returns.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"streamliner/internal/item"
)

// Adapter produces the items behind one request URL. Missing optional data
// yields an empty list; only collaborator failures return an error.
type Adapter interface {
	Items(ctx context.Context, rawURL string) ([]item.Item, error)
}

// APIClient returns the JSON records of a paginated collection endpoint.
// Authentication is the implementation's concern.
type APIClient interface {
	Collection(ctx context.Context, url string) ([]json.RawMessage, error)
}

// Fetcher downloads a URL and returns its body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// record is one decoded JSON object. Field reads never fail: a key that is
// missing, null or not a string reads as nil.
type record map[string]json.RawMessage

func decodeRecords(raws []json.RawMessage) []record {
	out := make([]record, 0, len(raws))
	for _, raw := range raws {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil || r == nil {
			r = record{}
		}
		out = append(out, r)
	}
	return out
}

// str returns the first key holding a non-blank string.
func (r record) str(keys ...string) *string {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) != "" {
			return &s
		}
	}
	return nil
}

// text returns the string at key as-is, blank or not.
func (r record) text(key string) *string {
	raw, ok := r[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// present reports whether key holds something other than null, false or an
// empty string, object or array.
func (r record) present(key string) bool {
	raw, ok := r[key]
	if !ok {
		return false
	}
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", `""`, "{}", "[]":
		return false
	}
	return true
}

// parseLoose parses rawURL, assuming https when the scheme is missing.
func parseLoose(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return u, nil
}

// segments returns the non-empty path segments of u.
func segments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
