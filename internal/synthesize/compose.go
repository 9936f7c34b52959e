package synthesize

import (
	"fmt"
	"strings"

	"github.com/daehan-cho/shopscribe/pkg/models"
)

// compose renders the final article from the facts and accumulated findings.
// It is deterministic for a given input. A panic here is converted to an
// error so the caller can fall back.
func (s *Synthesizer) compose(f facts, findings []finding) (article models.ArticleContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compose panicked: %v", r)
		}
	}()

	article.Title = composeTitle(f)
	article.Keywords = composeKeywords(f, findings)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", composeIntro(f))

	for _, r := range f.records {
		writeProductSection(&sb, r, enrichmentFor(f, r))
	}

	for _, fd := range findings {
		if fd.heading == "" || fd.body == "" {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", fd.heading, strings.TrimSpace(fd.body))
	}

	sb.WriteString("## Conclusion\n\n")
	sb.WriteString(composeConclusion(f))
	sb.WriteString("\n")

	article.Body = sb.String()
	article.Summary = composeIntro(f)
	return article, nil
}

func composeTitle(f facts) string {
	switch {
	case f.keyword != "" && len(f.records) > 1:
		return fmt.Sprintf("%s: %d Picks Compared", titleCase(f.keyword), len(f.records))
	case f.keyword != "":
		return fmt.Sprintf("%s: In-Depth Review", titleCase(f.keyword))
	case len(f.records) == 1:
		return f.records[0].Name + ": In-Depth Review"
	case len(f.categories) > 0:
		return fmt.Sprintf("%s: %d Picks Compared", f.categories[0], len(f.records))
	default:
		return fmt.Sprintf("%d Products Compared", len(f.records))
	}
}

func composeIntro(f facts) string {
	if len(f.records) == 1 {
		return fmt.Sprintf("A detailed look at %s, covering price, shipping and what reviewers say.", f.records[0].Name)
	}
	subject := "products"
	if f.keyword != "" {
		subject = f.keyword + " options"
	} else if len(f.categories) > 0 {
		subject = f.categories[0] + " products"
	}
	return fmt.Sprintf("We compared %d %s on price, shipping and reviews to save you the research.",
		len(f.records), subject)
}

func composeConclusion(f facts) string {
	if len(f.records) == 1 {
		return fmt.Sprintf("%s holds up well for its price point. Check current availability before ordering.", f.records[0].Name)
	}
	return fmt.Sprintf("Any of the %d options above is a reasonable buy; match the price band and shipping terms to your own priorities.",
		len(f.records))
}

func writeProductSection(sb *strings.Builder, r models.ProductRecord, e *models.EnrichedProductRecord) {
	fmt.Fprintf(sb, "## %s\n\n", r.Name)

	if r.Price > 0 {
		if r.Currency != "" {
			fmt.Fprintf(sb, "- Price: %s %s\n", formatPrice(r.Price), r.Currency)
		} else {
			fmt.Fprintf(sb, "- Price: %s\n", formatPrice(r.Price))
		}
	}
	if r.Rating > 0 {
		fmt.Fprintf(sb, "- Rating: %.1f (%d reviews)\n", r.Rating, r.ReviewCount)
	}
	if r.FastShipping {
		sb.WriteString("- Expedited shipping available\n")
	}
	if r.FreeShipping {
		sb.WriteString("- Free shipping\n")
	}
	if !r.InStock {
		sb.WriteString("- Currently out of stock\n")
	}
	sb.WriteString("\n")

	if r.Description != "" {
		sb.WriteString(strings.TrimSpace(r.Description) + "\n\n")
	}
	if e != nil {
		if len(e.Features) > 0 {
			sb.WriteString("**Key features:**\n\n")
			for _, feat := range e.Features {
				fmt.Fprintf(sb, "- %s\n", feat)
			}
			sb.WriteString("\n")
		}
		if len(e.Benefits) > 0 {
			sb.WriteString("**Why it matters:**\n\n")
			for _, b := range e.Benefits {
				fmt.Fprintf(sb, "- %s\n", b)
			}
			sb.WriteString("\n")
		}
	}
	if r.ProductURL != "" {
		fmt.Fprintf(sb, "[View product](%s)\n\n", r.ProductURL)
	}
}

func enrichmentFor(f facts, r models.ProductRecord) *models.EnrichedProductRecord {
	for _, e := range f.enriched {
		if e.ProductID == r.ProductID {
			return e
		}
	}
	return nil
}

// composeKeywords merges keyword candidates from the facts and the keyword
// action, lowercased, deduplicated in first-seen order, capped.
func composeKeywords(f facts, findings []finding) []string {
	var candidates []string
	if f.keyword != "" {
		candidates = append(candidates, f.keyword)
	}
	for _, fd := range findings {
		candidates = append(candidates, fd.keywords...)
	}
	candidates = append(candidates, f.categories...)

	seen := make(map[string]bool)
	out := make([]string, 0, maxKeywords)
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// fallbackArticle is the minimal degradation target when composition fails.
func fallbackArticle(f facts) models.ArticleContent {
	title := "Product Review"
	if f.keyword != "" {
		title = titleCase(f.keyword) + " Review"
	} else if len(f.records) > 0 {
		title = f.records[0].Name + " Review"
	}
	return models.ArticleContent{
		Title:   title,
		Body:    "This article is being prepared. Product details will be added shortly.",
		Summary: "Article pending full generation.",
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
