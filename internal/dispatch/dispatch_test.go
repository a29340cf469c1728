package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"streamliner/internal/item"
)

type recorder struct {
	name  string
	calls *[]string
	err   error
}

func (r recorder) Items(_ context.Context, rawURL string) ([]item.Item, error) {
	*r.calls = append(*r.calls, r.name+" "+rawURL)
	if r.err != nil {
		return nil, r.err
	}
	return []item.Item{item.FromFields(item.HTTP, item.Fields{Title: item.String(r.name)})}, nil
}

func newTestDispatcher() (*Dispatcher, *[]string) {
	var calls []string
	d := New(Adapters{
		GitHub: recorder{name: "github", calls: &calls},
		GitLab: recorder{name: "gitlab", calls: &calls},
		Feed:   recorder{name: "rss", calls: &calls},
		Page:   recorder{name: "http", calls: &calls},
	}, nil)
	return d, &calls
}

func TestRunExplicitCommands(t *testing.T) {
	for _, cmd := range []string{"github", "gitlab", "rss", "http"} {
		t.Run(cmd, func(t *testing.T) {
			d, calls := newTestDispatcher()
			env, err := d.Run(context.Background(), cmd, "https://example.com/about")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(*calls) != 1 || (*calls)[0] != cmd+" https://example.com/about" {
				t.Errorf("expected one call to %s, got %v", cmd, *calls)
			}
			if len(env.Items) != 1 || env.Items[0].Title != cmd {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestRunDoesNotAutodetectExplicitCommands(t *testing.T) {
	d, calls := newTestDispatcher()
	if _, err := d.Run(context.Background(), "http", "https://github.com/acme/widget"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if (*calls)[0] != "http https://github.com/acme/widget" {
		t.Errorf("expected explicit http route, got %v", *calls)
	}
}

func TestGetAutodetects(t *testing.T) {
	tests := map[string]string{
		"https://github.com/acme/widget": "github",
		"https://gitlab.com/acme/widget": "gitlab",
		"https://example.com/feed.xml":   "rss",
		"https://example.com/about":      "http",
	}
	for url, want := range tests {
		d, calls := newTestDispatcher()
		if _, err := d.Run(context.Background(), "get", url); err != nil {
			t.Fatalf("%s: expected no error, got %v", url, err)
		}
		if len(*calls) != 1 || !strings.HasPrefix((*calls)[0], want+" ") {
			t.Errorf("%s: expected %s adapter, got %v", url, want, *calls)
		}
	}
}

func TestInvocationErrorsDoNoIO(t *testing.T) {
	tests := []struct {
		name    string
		command string
		url     string
		want    error
	}{
		{name: "unknown command", command: "youtube", url: "https://example.com", want: ErrUnknownCommand},
		{name: "empty command", command: "", url: "https://example.com", want: ErrUnknownCommand},
		{name: "unknown without url", command: "svn", url: "", want: ErrUnknownCommand},
		{name: "missing url", command: "github", url: "", want: ErrMissingURL},
		{name: "blank url", command: "rss", url: "   ", want: ErrMissingURL},
		{name: "get without url", command: "get", url: "", want: ErrMissingURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, calls := newTestDispatcher()
			env, err := d.Run(context.Background(), tt.command, tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !IsInvocationError(err) {
				t.Error("expected invocation error")
			}
			if len(*calls) != 0 {
				t.Errorf("expected no adapter calls, got %v", *calls)
			}
			if env.Items == nil {
				t.Error("expected non-nil empty items")
			}
		})
	}
}

func TestUnknownCommandNamesToken(t *testing.T) {
	d, _ := newTestDispatcher()
	_, err := d.Run(context.Background(), "bitbucket", "https://x")
	if err == nil || !strings.Contains(err.Error(), `"bitbucket"`) {
		t.Errorf("expected message naming the token, got %v", err)
	}
}

func TestAdapterErrorPropagates(t *testing.T) {
	var calls []string
	boom := errors.New("upstream 502")
	d := New(Adapters{Page: recorder{name: "http", calls: &calls, err: boom}}, nil)
	_, err := d.Run(context.Background(), "http", "https://x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if IsInvocationError(err) {
		t.Error("expected upstream error not to be an invocation error")
	}
}
