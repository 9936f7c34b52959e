// Package publish pushes a synthesized article to the CMS without creating
// duplicate posts. New posts are always drafts; a human promotes them.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/daehan-cho/shopscribe/internal/cms"
	"github.com/daehan-cho/shopscribe/pkg/models"
)

// Meta keys attached to every post we create; MetaProductIDs is the dedup
// anchor.
const (
	MetaProductIDs = "shopscribe_ids"
	MetaKeyword    = "shopscribe_keyword"
)

// Review-section delimiters. On merge, the content between these markers in
// an existing post is replaced wholesale.
const (
	sectionStart = "<!-- shopscribe:reviews -->"
	sectionEnd   = "<!-- /shopscribe:reviews -->"
)

// Publisher performs the dedup-then-create-or-merge publish step.
type Publisher struct {
	cms    cms.Client
	logger *slog.Logger
}

func New(client cms.Client, logger *slog.Logger) *Publisher {
	return &Publisher{cms: client, logger: logger}
}

// Publish creates or updates exactly one post for the article. Identifier
// metadata is checked before title similarity; the first hit wins. Returned
// errors mean the job ends as publish_failed; there is no retry here.
func (p *Publisher) Publish(ctx context.Context, article models.ArticleContent, ids []string, keyword string) (models.PublishResult, error) {
	existing, found, err := p.findDuplicate(ctx, article, ids)
	if err != nil {
		return models.PublishResult{Status: models.PublishFailed}, fmt.Errorf("dedup lookup: %w", err)
	}

	meta := map[string]string{MetaProductIDs: strings.Join(ids, ",")}
	if keyword != "" {
		meta[MetaKeyword] = keyword
	}

	if found {
		return p.update(ctx, existing, article, meta)
	}
	return p.create(ctx, article, meta)
}

// findDuplicate checks identifier metadata first, then near-duplicate titles.
func (p *Publisher) findDuplicate(ctx context.Context, article models.ArticleContent, ids []string) (cms.Post, bool, error) {
	for _, id := range ids {
		posts, err := p.cms.SearchByMeta(ctx, MetaProductIDs, id)
		if err != nil {
			return cms.Post{}, false, err
		}
		for _, post := range posts {
			if hasIdentifier(post, id) {
				p.logger.Info("duplicate post found by identifier", "post_id", post.ID, "product_id", id)
				return post, true, nil
			}
		}
	}

	posts, err := p.cms.SearchByTitle(ctx, article.Title)
	if err != nil {
		return cms.Post{}, false, err
	}
	for _, post := range posts {
		if titlesMatch(post.Title, article.Title) {
			p.logger.Info("duplicate post found by title", "post_id", post.ID, "title", post.Title)
			return post, true, nil
		}
	}
	return cms.Post{}, false, nil
}

func (p *Publisher) create(ctx context.Context, article models.ArticleContent, meta map[string]string) (models.PublishResult, error) {
	created, err := p.cms.CreatePost(ctx, cms.Post{
		Title:   article.Title,
		Content: wrapSection(article.Body),
		Excerpt: article.Summary,
		Status:  "draft",
		Meta:    meta,
	})
	if err != nil {
		return models.PublishResult{Status: models.PublishFailed}, fmt.Errorf("creating post: %w", err)
	}

	p.logger.Info("post created", "post_id", created.ID, "status", created.Status)
	return models.PublishResult{
		PostID:     created.ID,
		URL:        created.URL,
		Status:     models.PublishCreated,
		ModifiedAt: modifiedAt(created),
	}, nil
}

func (p *Publisher) update(ctx context.Context, existing cms.Post, article models.ArticleContent, meta map[string]string) (models.PublishResult, error) {
	merged := mergeBody(existing.Content, article.Body)

	// Union the identifier sets so later batches still find this post.
	meta[MetaProductIDs] = unionIDs(existing.Meta[MetaProductIDs], meta[MetaProductIDs])

	updated, err := p.cms.UpdatePost(ctx, existing.ID, cms.Post{
		Title:   existing.Title,
		Content: merged,
		Excerpt: article.Summary,
		Status:  existing.Status,
		Meta:    meta,
	})
	if err != nil {
		return models.PublishResult{Status: models.PublishFailed}, fmt.Errorf("updating post %d: %w", existing.ID, err)
	}

	p.logger.Info("post updated", "post_id", updated.ID)
	return models.PublishResult{
		PostID:     updated.ID,
		URL:        updated.URL,
		Status:     models.PublishUpdated,
		ModifiedAt: modifiedAt(updated),
	}, nil
}

// mergeBody replaces the delimited review section of an existing body, or
// appends one when the markers are absent.
func mergeBody(existing, fresh string) string {
	start := strings.Index(existing, sectionStart)
	end := strings.Index(existing, sectionEnd)
	if start >= 0 && end > start {
		return existing[:start] + wrapSection(fresh) + existing[end+len(sectionEnd):]
	}
	if strings.TrimSpace(existing) == "" {
		return wrapSection(fresh)
	}
	return existing + "\n\n" + wrapSection(fresh)
}

func wrapSection(body string) string {
	return sectionStart + "\n" + strings.TrimSpace(body) + "\n" + sectionEnd
}

func hasIdentifier(post cms.Post, id string) bool {
	for _, have := range strings.Split(post.Meta[MetaProductIDs], ",") {
		if strings.TrimSpace(have) == id {
			return true
		}
	}
	return false
}

// titlesMatch applies the near-duplicate strategy: normalized titles match
// when equal or when one is a prefix of the other.
func titlesMatch(a, b string) bool {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func unionIDs(existing, fresh string) string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range append(strings.Split(existing, ","), strings.Split(fresh, ",")...) {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return strings.Join(out, ",")
}

func modifiedAt(post cms.Post) time.Time {
	if !post.ModifiedAt.IsZero() {
		return post.ModifiedAt
	}
	return time.Now().UTC()
}
