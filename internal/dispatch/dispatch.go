// Package dispatch routes a command token and URL to the adapter that
// serves it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"streamliner/internal/item"
	"streamliner/internal/logging"
	"streamliner/internal/provider"
	"streamliner/internal/route"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingURL     = errors.New("missing url")
)

// Commands lists the accepted command tokens.
var Commands = []string{"github", "gitlab", "rss", "http", "get"}

// Adapters holds one adapter per explicit command.
type Adapters struct {
	GitHub provider.Adapter
	GitLab provider.Adapter
	Feed   provider.Adapter
	Page   provider.Adapter
}

type Dispatcher struct {
	adapters Adapters
	logger   *log.Logger
}

func New(a Adapters, logger *log.Logger) *Dispatcher {
	return &Dispatcher{adapters: a, logger: logging.OrDiscard(logger)}
}

// IsInvocationError reports whether err is caller misuse rather than an
// upstream failure.
func IsInvocationError(err error) bool {
	return errors.Is(err, ErrUnknownCommand) || errors.Is(err, ErrMissingURL)
}

// Run validates command and rawURL, then calls the chosen adapter. Both
// checks happen before any adapter is touched.
func (d *Dispatcher) Run(ctx context.Context, command, rawURL string) (item.Envelope, error) {
	command = strings.ToLower(strings.TrimSpace(command))
	rawURL = strings.TrimSpace(rawURL)

	var adapter provider.Adapter
	switch command {
	case "get":
		if rawURL == "" {
			return item.NewEnvelope(nil), fmt.Errorf("%w for %q", ErrMissingURL, command)
		}
		return d.Get(ctx, rawURL)
	case "github":
		adapter = d.adapters.GitHub
	case "gitlab":
		adapter = d.adapters.GitLab
	case "rss":
		adapter = d.adapters.Feed
	case "http":
		adapter = d.adapters.Page
	default:
		return item.NewEnvelope(nil), fmt.Errorf("%w %q (expected one of %s)", ErrUnknownCommand, command, strings.Join(Commands, ", "))
	}
	if rawURL == "" {
		return item.NewEnvelope(nil), fmt.Errorf("%w for %q", ErrMissingURL, command)
	}
	if adapter == nil {
		return item.NewEnvelope(nil), fmt.Errorf("no adapter configured for %q", command)
	}

	d.logger.Debug("dispatch", "command", command, "url", rawURL)
	items, err := adapter.Items(ctx, rawURL)
	if err != nil {
		return item.NewEnvelope(nil), err
	}
	return item.NewEnvelope(items), nil
}

// Get classifies rawURL and re-dispatches to the matching command.
func (d *Dispatcher) Get(ctx context.Context, rawURL string) (item.Envelope, error) {
	if strings.TrimSpace(rawURL) == "" {
		return item.NewEnvelope(nil), fmt.Errorf("%w for %q", ErrMissingURL, "get")
	}
	kind := route.Classify(rawURL)
	d.logger.Debug("autodetect", "url", rawURL, "kind", kind)
	return d.Run(ctx, kind.Command(), rawURL)
}
