package digest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"streamliner/internal/config"
	"streamliner/internal/extract"
	"streamliner/internal/item"
	"streamliner/internal/logging"
)

// DefaultPrompt is used when ai.prompt is empty.
const DefaultPrompt = `Summarize the following items from {{.URL}} as a short Markdown digest.
Group related items and keep one line per item with its link.
{{range .Articles}}
## {{.Title}}
Source: {{.Source}}{{if .Published}} ({{.Published}}){{end}}
URL: {{.Url}}

{{.Content}}
{{end}}`

// DefaultMaxItems caps how many items go into one prompt.
const DefaultMaxItems = 20

// maxContent caps each article's content in the prompt.
const maxContent = 4000

type Article struct {
	Title     string
	Source    string
	Published string
	Url       string
	Content   string
}

// Input is the data the prompt template is executed with.
type Input struct {
	URL      string
	Articles []Article
}

// Runner resolves a command and URL into items.
type Runner interface {
	Run(ctx context.Context, command, url string) (item.Envelope, error)
}

type Digester struct {
	Runner    Runner
	Extractor *extract.Extractor
	AI        config.AIConfig
	MaxItems  int
	Out       io.Writer
	Logger    *log.Logger
}

func (d *Digester) Run(ctx context.Context, url string) error {
	if d.AI.BaseUrl == "" {
		return fmt.Errorf("AI base URL is not configured")
	}
	if d.AI.Model == "" {
		return fmt.Errorf("AI model is not configured")
	}
	logger := logging.OrDiscard(d.Logger)

	env, err := d.Runner.Run(ctx, "get", url)
	if err != nil {
		return err
	}
	items := env.Items
	limit := d.MaxItems
	if limit <= 0 {
		limit = DefaultMaxItems
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		return fmt.Errorf("no items found at %s", url)
	}
	if d.Extractor != nil {
		items = d.Extractor.ExpandAll(ctx, items)
	}
	logger.Info("digesting", "url", url, "items", len(items), "base_url", d.AI.BaseUrl)

	prompt, err := BuildPrompt(d.AI.Prompt, Input{URL: url, Articles: Articles(items)})
	if err != nil {
		return err
	}
	return Complete(ctx, d.AI, prompt, d.Out)
}

// Articles converts items into prompt entries with readable content.
func Articles(items []item.Item) []Article {
	out := make([]Article, 0, len(items))
	for _, it := range items {
		content := strings.TrimSpace(extract.Readable(it))
		if len(content) > maxContent {
			cut := maxContent
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		a := Article{
			Title:   it.Title,
			Source:  string(it.Source),
			Url:     it.URL,
			Content: content,
		}
		if it.Timestamp != nil {
			a.Published = it.Timestamp.Format(time.RFC3339)
		}
		out = append(out, a)
	}
	return out
}

// BuildPrompt executes tmpl, or DefaultPrompt when tmpl is blank, with in.
func BuildPrompt(tmpl string, in Input) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultPrompt
	}
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid prompt template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Complete sends prompt to the configured chat model and writes the answer
// to w, streaming it when ai.Stream is set.
func Complete(ctx context.Context, ai config.AIConfig, prompt string, w io.Writer) error {
	opts := []option.RequestOption{option.WithBaseURL(ai.BaseUrl)}
	if ai.APIKey != "" {
		opts = append(opts, option.WithAPIKey(ai.APIKey))
	}
	client := openai.NewClient(opts...)
	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: ai.Model,
	}

	if ai.Stream {
		stream := client.Chat.Completions.NewStreaming(timeoutCtx, params)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				fmt.Fprint(w, chunk.Choices[0].Delta.Content)
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("stream error: %w", err)
		}
		fmt.Fprintln(w)
		return nil
	}

	completion, err := client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		return fmt.Errorf("failed to get AI completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return fmt.Errorf("AI returned no choices")
	}
	if strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return fmt.Errorf("AI returned empty content")
	}
	fmt.Fprintln(w, completion.Choices[0].Message.Content)
	return nil
}
