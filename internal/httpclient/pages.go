package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const perPage = 100

// Pager walks a paginated JSON array endpoint such as the GitHub or GitLab
// REST APIs, following Link rel="next" headers.
type Pager struct {
	client   *Client
	headers  map[string]string
	maxPages int
}

// Pager returns a paginated reader sending headers on every request.
// maxPages below 1 is treated as 1.
func (c *Client) Pager(headers map[string]string, maxPages int) *Pager {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Pager{client: c, headers: headers, maxPages: maxPages}
}

// Collection fetches up to maxPages pages from rawURL and concatenates the
// records in upstream order.
func (p *Pager) Collection(ctx context.Context, rawURL string) ([]json.RawMessage, error) {
	next, err := withPerPage(rawURL)
	if err != nil {
		return nil, err
	}

	records := []json.RawMessage{}
	for page := 0; page < p.maxPages && next != ""; page++ {
		batch, link, err := p.page(ctx, next)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		next = nextLink(link)
	}
	return records, nil
}

func (p *Pager) page(ctx context.Context, u string) ([]json.RawMessage, string, error) {
	resp, err := p.client.Get(ctx, u, p.headers)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(u, resp); err != nil {
		return nil, "", err
	}

	var batch []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", u, err)
	}
	return batch, resp.Header.Get("Link"), nil
}

func withPerPage(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", rawURL, err)
	}
	q := u.Query()
	if q.Get("per_page") == "" {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segs[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(k), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(v), `"`)) {
				if strings.EqualFold(rel, "next") {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}
