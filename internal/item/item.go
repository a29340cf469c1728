// Package item defines the normalized record every provider emits.
package item

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Source tags the provider and record kind an Item came from.
type Source string

const (
	GitHubIssue   Source = "github:issue"
	GitHubRelease Source = "github:release"
	GitLabIssue   Source = "gitlab:issue"
	GitLabMR      Source = "gitlab:mr"
	RSS           Source = "rss"
	Atom          Source = "atom"
	HTTP          Source = "http"
)

// Sources lists every valid tag in a stable order.
var Sources = []Source{GitHubIssue, GitHubRelease, GitLabIssue, GitLabMR, RSS, Atom, HTTP}

func (s Source) Valid() bool {
	switch s {
	case GitHubIssue, GitHubRelease, GitLabIssue, GitLabMR, RSS, Atom, HTTP:
		return true
	}
	return false
}

// Summarized reports whether records of this source carry a short summary
// instead of the full body. Only feed entries do.
func (s Source) Summarized() bool {
	switch s {
	case RSS, Atom:
		return true
	case GitHubIssue, GitHubRelease, GitLabIssue, GitLabMR, HTTP:
		return false
	}
	return false
}

// Item is one normalized record. Values are built once by Build and never
// modified afterwards.
type Item struct {
	URL                    string     `json:"url"`
	Title                  string     `json:"title"`
	Content                string     `json:"content"`
	NeedsFurtherProcessing bool       `json:"needs_further_processing"`
	Source                 Source     `json:"source"`
	Timestamp              *time.Time `json:"timestamp"`
}

// Envelope is the response shape handed to every caller.
type Envelope struct {
	Items []Item `json:"items"`
}

// NewEnvelope wraps items, keeping the list non-nil so it encodes as [].
func NewEnvelope(items []Item) Envelope {
	if items == nil {
		items = []Item{}
	}
	return Envelope{Items: items}
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	type envelope Envelope
	if e.Items == nil {
		e.Items = []Item{}
	}
	return json.Marshal(envelope(e))
}

// Fields carries what an adapter managed to read from one native record.
// A nil pointer means the upstream record did not have the field.
type Fields struct {
	URL   *string
	Title *string
	// Body is the full body for API and page sources, the summary for feeds.
	Body *string
	// Date is the raw upstream date string.
	Date *string
	// Time overrides Date when the adapter already knows the instant.
	Time *time.Time
	// TitleFallback is used when Title is absent or blank.
	TitleFallback string
}

// Extractor reads Fields out of a provider-specific record.
type Extractor[R any] func(R) Fields

// Build maps one native record to an Item. It never fails: absent fields
// resolve to their defaults.
func Build[R any](src Source, rec R, extract Extractor[R]) Item {
	return FromFields(src, extract(rec))
}

// FromFields applies the default and content synthesis rules.
func FromFields(src Source, f Fields) Item {
	title := strings.TrimSpace(deref(f.Title))
	if title == "" {
		title = f.TitleFallback
	}

	body := deref(f.Body)
	content := body
	if src.Summarized() {
		content = Synthesize(title, body)
	}

	ts := f.Time
	if ts == nil {
		ts = ParseTime(deref(f.Date))
	}

	return Item{
		URL:                    strings.TrimSpace(deref(f.URL)),
		Title:                  title,
		Content:                content,
		NeedsFurtherProcessing: src.Summarized(),
		Source:                 src,
		Timestamp:              ts,
	}
}

// Synthesize prefixes a summary with its title. An empty summary, or one
// that just repeats the title, yields the title alone; a blank title yields
// the summary alone.
func Synthesize(title, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" || summary == title {
		return title
	}
	if strings.TrimSpace(title) == "" {
		return summary
	}
	return title + "\n\n" + summary
}

// ParseTime parses an upstream date in any common layout. Blank or
// unparseable input yields nil.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

// String returns a pointer to s, for building Fields by hand.
func String(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
