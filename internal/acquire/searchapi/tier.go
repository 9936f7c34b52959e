package searchapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/daehan-cho/shopscribe/internal/acquire"
)

const maxPageBytes = 2 << 20 // cap the lightweight fetch at 2 MiB

// Tier adapts the search API client to the acquisition tier chain. On a hit
// whose summary lacks a description, it does one cheap HTML fetch of the
// product page and parses it without a browser.
type Tier struct {
	client Client
	pages  *http.Client
}

// NewTier builds tier 1 over a search API client.
func NewTier(client Client, pages *http.Client) *Tier {
	if pages == nil {
		pages = http.DefaultClient
	}
	return &Tier{client: client, pages: pages}
}

func (t *Tier) Name() string { return "search_api" }

func (t *Tier) Fetch(ctx context.Context, item acquire.Item) (acquire.Result, error) {
	rec, found, err := t.client.Lookup(ctx, item.ProductID)
	if err != nil {
		return acquire.Result{}, err
	}
	if !found {
		return acquire.Result{}, acquire.ErrMiss
	}

	// Tier coverage gap, not an error: a summary without a usable name is a
	// miss so the browser tier can try the real page.
	if strings.TrimSpace(rec.Name) == "" {
		return acquire.Result{}, fmt.Errorf("%w: empty product name", acquire.ErrMiss)
	}

	if rec.Description == "" && rec.ProductURL != "" {
		if desc := t.fetchDescription(ctx, rec.ProductURL); desc != "" {
			rec.Description = desc
		}
	}

	return acquire.Result{Record: rec}, nil
}

// fetchDescription pulls the product page once and tries meta-tag candidates
// first, then readability text. Failures degrade to an empty description.
func (t *Tier) fetchDescription(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	resp, err := t.pages.Do(req)
	if err != nil {
		slog.Debug("description fetch failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}

	return extractDescription(string(body))
}

// extractDescription parses HTML for a product description: og/meta
// candidates in order, then the readability main text, truncated.
func extractDescription(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		for _, sel := range []string{
			`meta[property="og:description"]`,
			`meta[name="description"]`,
		} {
			if content, ok := doc.Find(sel).First().Attr("content"); ok {
				if c := strings.TrimSpace(content); c != "" {
					return c
				}
			}
		}
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return ""
	}
	return truncate(strings.TrimSpace(article.TextContent), 1000)
}

// truncate cuts s to maxBytes without splitting UTF-8 runes.
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

var _ acquire.Tier = (*Tier)(nil)
