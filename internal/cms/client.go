// Package cms talks to the WordPress-compatible content backend the articles
// are published to.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors for CMS client failures.
var (
	ErrCMSUnreachable  = errors.New("cms unreachable")
	ErrCMSRequestError = errors.New("cms request error")
	ErrCMSTimeout      = errors.New("cms request timeout")
	ErrPostNotFound    = errors.New("post not found")
)

// Post is the client-facing shape of a CMS post. Meta carries the
// identifier and keyword tags the publisher uses for dedup.
type Post struct {
	ID         int
	Title      string
	Content    string
	Excerpt    string
	Status     string
	URL        string
	Meta       map[string]string
	ModifiedAt time.Time
}

// Client is the interface for the content backend.
type Client interface {
	CreatePost(ctx context.Context, post Post) (Post, error)
	UpdatePost(ctx context.Context, id int, post Post) (Post, error)
	GetPost(ctx context.Context, id int) (Post, error)
	SearchByTitle(ctx context.Context, title string) ([]Post, error)
	SearchByMeta(ctx context.Context, key, value string) ([]Post, error)
}

// HTTPClient implements Client using the WordPress REST API.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client

	// Read-side retry knobs; searches are safe to repeat, writes are not.
	retryAttempts int
	retryBase     time.Duration
}

// NewHTTPClient creates a new CMS HTTP client using application-password
// basic auth.
func NewHTTPClient(baseURL, username, password string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:       baseURL,
		username:      username,
		password:      password,
		client:        &http.Client{Timeout: timeout},
		retryAttempts: 3,
		retryBase:     200 * time.Millisecond,
	}
}

type rendered struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

type wirePost struct {
	ID       int               `json:"id"`
	Link     string            `json:"link"`
	Status   string            `json:"status"`
	Modified string            `json:"modified_gmt"`
	Title    rendered          `json:"title"`
	Content  rendered          `json:"content"`
	Excerpt  rendered          `json:"excerpt"`
	Meta     map[string]string `json:"meta"`
}

type writeRequest struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Excerpt string            `json:"excerpt,omitempty"`
	Status  string            `json:"status,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func (w wirePost) toPost() Post {
	p := Post{
		ID:      w.ID,
		URL:     w.Link,
		Status:  w.Status,
		Title:   w.Title.Rendered,
		Content: w.Content.Rendered,
		Excerpt: w.Excerpt.Rendered,
		Meta:    w.Meta,
	}
	if w.Title.Raw != "" {
		p.Title = w.Title.Raw
	}
	if w.Content.Raw != "" {
		p.Content = w.Content.Raw
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", w.Modified); err == nil {
		p.ModifiedAt = ts.UTC()
	}
	return p
}

func (c *HTTPClient) CreatePost(ctx context.Context, post Post) (Post, error) {
	status := post.Status
	if status == "" {
		status = "draft"
	}
	return c.writePost(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/posts", writeRequest{
		Title:   post.Title,
		Content: post.Content,
		Excerpt: post.Excerpt,
		Status:  status,
		Meta:    post.Meta,
	})
}

func (c *HTTPClient) UpdatePost(ctx context.Context, id int, post Post) (Post, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, id)
	return c.writePost(ctx, http.MethodPost, u, writeRequest{
		Title:   post.Title,
		Content: post.Content,
		Excerpt: post.Excerpt,
		Status:  post.Status,
		Meta:    post.Meta,
	})
}

func (c *HTTPClient) writePost(ctx context.Context, method, u string, body writeRequest) (Post, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Post{}, fmt.Errorf("marshaling post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return Post{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return Post{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Post{}, fmt.Errorf("%w: status %d", ErrCMSRequestError, resp.StatusCode)
	}

	var wire wirePost
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Post{}, fmt.Errorf("decoding post response: %w", err)
	}
	return wire.toPost(), nil
}

func (c *HTTPClient) GetPost(ctx context.Context, id int) (Post, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d?context=edit", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Post{}, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return Post{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Post{}, fmt.Errorf("%w: id %d", ErrPostNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return Post{}, fmt.Errorf("%w: status %d", ErrCMSRequestError, resp.StatusCode)
	}

	var wire wirePost
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Post{}, fmt.Errorf("decoding post response: %w", err)
	}
	return wire.toPost(), nil
}

func (c *HTTPClient) SearchByTitle(ctx context.Context, title string) ([]Post, error) {
	params := url.Values{
		"search":   {title},
		"status":   {"draft,publish"},
		"context":  {"edit"},
		"per_page": {"20"},
	}
	return c.searchPosts(ctx, params)
}

func (c *HTTPClient) SearchByMeta(ctx context.Context, key, value string) ([]Post, error) {
	params := url.Values{
		"meta_key":   {key},
		"meta_value": {value},
		"status":     {"draft,publish"},
		"context":    {"edit"},
		"per_page":   {"20"},
	}
	return c.searchPosts(ctx, params)
}

// searchPosts runs a read-only query with retry. Transient transport
// failures back off exponentially; request-level errors do not retry.
func (c *HTTPClient) searchPosts(ctx context.Context, params url.Values) ([]Post, error) {
	u := fmt.Sprintf("%s/wp-json/wp/v2/posts?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retryBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		posts, err := c.doSearch(ctx, u)
		if err == nil {
			return posts, nil
		}
		lastErr = err
		if !errors.Is(err, ErrCMSUnreachable) && !errors.Is(err, ErrCMSTimeout) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) doSearch(ctx context.Context, u string) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCMSRequestError, resp.StatusCode)
	}

	var wires []wirePost
	if err := json.NewDecoder(resp.Body).Decode(&wires); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	posts := make([]Post, 0, len(wires))
	for _, w := range wires {
		posts = append(posts, w.toPost())
	}
	return posts, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrCMSTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrCMSTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrCMSUnreachable, err)
}

var _ Client = (*HTTPClient)(nil)
