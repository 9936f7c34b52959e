package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/daehan-cho/shopscribe/internal/cms"
	"github.com/daehan-cho/shopscribe/internal/cms/mock"
	"github.com/daehan-cho/shopscribe/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(client cms.Client) *Publisher {
	return New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeCMS is an in-memory backend implementing token-aware meta search, so
// the full create-then-republish flow can run against it.
type fakeCMS struct {
	posts  map[int]cms.Post
	nextID int

	createCalls int
	updateCalls int
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{posts: make(map[int]cms.Post), nextID: 1}
}

func (f *fakeCMS) client() *mock.Client {
	return &mock.Client{
		CreatePostFunc: func(_ context.Context, post cms.Post) (cms.Post, error) {
			f.createCalls++
			post.ID = f.nextID
			f.nextID++
			f.posts[post.ID] = post
			return post, nil
		},
		UpdatePostFunc: func(_ context.Context, id int, post cms.Post) (cms.Post, error) {
			f.updateCalls++
			post.ID = id
			f.posts[id] = post
			return post, nil
		},
		SearchByMetaFunc: func(_ context.Context, key, value string) ([]cms.Post, error) {
			var out []cms.Post
			for _, p := range f.posts {
				for _, tok := range strings.Split(p.Meta[key], ",") {
					if strings.TrimSpace(tok) == value {
						out = append(out, p)
						break
					}
				}
			}
			return out, nil
		},
		SearchByTitleFunc: func(_ context.Context, _ string) ([]cms.Post, error) {
			// WordPress search is loose term matching; approximating it by
			// returning everything exercises the publisher's own filter.
			var out []cms.Post
			for _, p := range f.posts {
				out = append(out, p)
			}
			return out, nil
		},
	}
}

var testArticle = models.ArticleContent{
	Title:   "Mechanical Keyboard: 3 Picks Compared",
	Body:    "## Keyboard A\n\nGood value.",
	Summary: "Three keyboards compared.",
}

func TestPublish_CreatesDraft(t *testing.T) {
	fake := newFakeCMS()
	pub := newTestPublisher(fake.client())

	res, err := pub.Publish(context.Background(), testArticle, []string{"100", "200"}, "mechanical keyboard")
	require.NoError(t, err)
	assert.Equal(t, models.PublishCreated, res.Status)
	assert.Equal(t, 1, fake.createCalls)

	stored := fake.posts[res.PostID]
	assert.Equal(t, "draft", stored.Status)
	assert.Equal(t, "100,200", stored.Meta[MetaProductIDs])
	assert.Equal(t, "mechanical keyboard", stored.Meta[MetaKeyword])
	assert.Contains(t, stored.Content, sectionStart)
	assert.Contains(t, stored.Content, sectionEnd)
}

func TestPublish_SecondRunUpdatesSamePost(t *testing.T) {
	fake := newFakeCMS()
	pub := newTestPublisher(fake.client())

	first, err := pub.Publish(context.Background(), testArticle, []string{"100", "200"}, "")
	require.NoError(t, err)

	refreshed := testArticle
	refreshed.Body = "## Keyboard A\n\nRevised take."
	second, err := pub.Publish(context.Background(), refreshed, []string{"100"}, "")
	require.NoError(t, err)

	assert.Equal(t, models.PublishUpdated, second.Status)
	assert.Equal(t, first.PostID, second.PostID)
	assert.Equal(t, 1, fake.createCalls)
	assert.Equal(t, 1, fake.updateCalls)

	stored := fake.posts[second.PostID]
	assert.Contains(t, stored.Content, "Revised take.")
	assert.NotContains(t, stored.Content, "Good value.")
	// Identifier union keeps the original batch findable.
	assert.Equal(t, "100,200", stored.Meta[MetaProductIDs])
}

func TestPublish_IdentifierHitBeatsTitle(t *testing.T) {
	fake := newFakeCMS()
	fake.posts[10] = cms.Post{
		ID: 10, Title: "Totally Different Title", Status: "publish",
		Content: "intro\n\n" + sectionStart + "\nold reviews\n" + sectionEnd,
		Meta:    map[string]string{MetaProductIDs: "999,100"},
	}
	fake.posts[11] = cms.Post{
		ID: 11, Title: testArticle.Title, Status: "draft",
		Meta: map[string]string{MetaProductIDs: "555"},
	}
	fake.nextID = 12
	pub := newTestPublisher(fake.client())

	res, err := pub.Publish(context.Background(), testArticle, []string{"100"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.PublishUpdated, res.Status)
	assert.Equal(t, 10, res.PostID)
}

func TestPublish_TitleFallbackMatch(t *testing.T) {
	fake := newFakeCMS()
	fake.posts[20] = cms.Post{
		ID: 20, Title: "Mechanical keyboard   3 picks compared!", Status: "publish",
		Content: "hand-written intro",
		Meta:    map[string]string{MetaProductIDs: "555"},
	}
	fake.nextID = 21
	pub := newTestPublisher(fake.client())

	res, err := pub.Publish(context.Background(), testArticle, []string{"100"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.PublishUpdated, res.Status)
	assert.Equal(t, 20, res.PostID)

	// No markers in the existing body, so the section is appended.
	stored := fake.posts[20]
	assert.True(t, strings.HasPrefix(stored.Content, "hand-written intro"))
	assert.Contains(t, stored.Content, sectionStart)
}

func TestPublish_SearchFailureIsPublishFailed(t *testing.T) {
	client := &mock.Client{
		SearchByMetaFunc: func(context.Context, string, string) ([]cms.Post, error) {
			return nil, cms.ErrCMSUnreachable
		},
	}
	pub := newTestPublisher(client)

	res, err := pub.Publish(context.Background(), testArticle, []string{"100"}, "")
	require.ErrorIs(t, err, cms.ErrCMSUnreachable)
	assert.Equal(t, models.PublishFailed, res.Status)
}

func TestPublish_CreateFailureIsPublishFailed(t *testing.T) {
	client := &mock.Client{
		CreatePostFunc: func(context.Context, cms.Post) (cms.Post, error) {
			return cms.Post{}, errors.New("403 forbidden")
		},
	}
	pub := newTestPublisher(client)

	res, err := pub.Publish(context.Background(), testArticle, []string{"100"}, "")
	require.Error(t, err)
	assert.Equal(t, models.PublishFailed, res.Status)
}

func TestMergeBody(t *testing.T) {
	t.Run("replaces marked section", func(t *testing.T) {
		existing := "intro\n\n" + sectionStart + "\nold\n" + sectionEnd + "\n\noutro"
		merged := mergeBody(existing, "new reviews")
		assert.Contains(t, merged, "intro")
		assert.Contains(t, merged, "outro")
		assert.Contains(t, merged, "new reviews")
		assert.NotContains(t, merged, "old")
	})

	t.Run("appends when markers absent", func(t *testing.T) {
		merged := mergeBody("plain body", "new reviews")
		assert.True(t, strings.HasPrefix(merged, "plain body"))
		assert.Contains(t, merged, "new reviews")
	})

	t.Run("empty existing body", func(t *testing.T) {
		merged := mergeBody("", "new reviews")
		assert.True(t, strings.HasPrefix(merged, sectionStart))
	})
}

func TestTitlesMatch(t *testing.T) {
	assert.True(t, titlesMatch("Mechanical Keyboard: 3 Picks Compared", "mechanical keyboard 3 picks compared"))
	assert.True(t, titlesMatch("Mechanical Keyboard: 3 Picks Compared (2026)", "Mechanical Keyboard: 3 Picks Compared"))
	assert.False(t, titlesMatch("Gaming Chairs Reviewed", "Mechanical Keyboard: 3 Picks Compared"))
	assert.False(t, titlesMatch("", "anything"))
}
