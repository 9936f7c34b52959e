package mock

import (
	"context"

	"github.com/daehan-cho/shopscribe/internal/cms"
)

// Client satisfies cms.Client for testing.
type Client struct {
	CreatePostFunc    func(ctx context.Context, post cms.Post) (cms.Post, error)
	UpdatePostFunc    func(ctx context.Context, id int, post cms.Post) (cms.Post, error)
	GetPostFunc       func(ctx context.Context, id int) (cms.Post, error)
	SearchByTitleFunc func(ctx context.Context, title string) ([]cms.Post, error)
	SearchByMetaFunc  func(ctx context.Context, key, value string) ([]cms.Post, error)
}

func (m *Client) CreatePost(ctx context.Context, post cms.Post) (cms.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, post)
	}
	return post, nil
}

func (m *Client) UpdatePost(ctx context.Context, id int, post cms.Post) (cms.Post, error) {
	if m.UpdatePostFunc != nil {
		return m.UpdatePostFunc(ctx, id, post)
	}
	post.ID = id
	return post, nil
}

func (m *Client) GetPost(ctx context.Context, id int) (cms.Post, error) {
	if m.GetPostFunc != nil {
		return m.GetPostFunc(ctx, id)
	}
	return cms.Post{ID: id}, nil
}

func (m *Client) SearchByTitle(ctx context.Context, title string) ([]cms.Post, error) {
	if m.SearchByTitleFunc != nil {
		return m.SearchByTitleFunc(ctx, title)
	}
	return nil, nil
}

func (m *Client) SearchByMeta(ctx context.Context, key, value string) ([]cms.Post, error) {
	if m.SearchByMetaFunc != nil {
		return m.SearchByMetaFunc(ctx, key, value)
	}
	return nil, nil
}

var _ cms.Client = (*Client)(nil)
