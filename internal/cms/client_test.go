package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *HTTPClient {
	c := NewHTTPClient(baseURL, "editor", "app-password", 5*time.Second)
	c.retryBase = time.Millisecond
	return c
}

func TestCreatePost_DefaultsToDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "editor", user)
		assert.Equal(t, "app-password", pass)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "draft", req["status"])
		assert.Equal(t, "Keyboards Compared", req["title"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"id": 55,
			"link": "https://blog.example/?p=55",
			"status": "draft",
			"modified_gmt": "2026-08-30T10:00:00",
			"title": {"rendered": "Keyboards Compared"},
			"content": {"rendered": "<p>body</p>"},
			"excerpt": {"rendered": "summary"},
			"meta": {"shopscribe_ids": "100,200"}
		}`))
	}))
	defer srv.Close()

	post, err := newTestClient(srv.URL).CreatePost(context.Background(), Post{
		Title:   "Keyboards Compared",
		Content: "<p>body</p>",
		Meta:    map[string]string{"shopscribe_ids": "100,200"},
	})
	require.NoError(t, err)
	assert.Equal(t, 55, post.ID)
	assert.Equal(t, "draft", post.Status)
	assert.Equal(t, "https://blog.example/?p=55", post.URL)
	assert.Equal(t, "100,200", post.Meta["shopscribe_ids"])
	assert.Equal(t, 2026, post.ModifiedAt.Year())
}

func TestUpdatePost_PreservesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts/123", r.URL.Path)
		w.Write([]byte(`{"id": 123, "status": "draft", "title": {"rendered": "Updated"}, "content": {"rendered": ""}, "excerpt": {"rendered": ""}}`))
	}))
	defer srv.Close()

	post, err := newTestClient(srv.URL).UpdatePost(context.Background(), 123, Post{Title: "Updated"})
	require.NoError(t, err)
	assert.Equal(t, 123, post.ID)
}

func TestGetPost_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetPost(context.Background(), 999)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestSearchByMeta_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "shopscribe_ids", q.Get("meta_key"))
		assert.Equal(t, "7558015091", q.Get("meta_value"))
		assert.Equal(t, "edit", q.Get("context"))
		w.Write([]byte(`[{"id": 7, "status": "publish", "title": {"rendered": "Existing"}, "content": {"rendered": "old body"}, "excerpt": {"rendered": ""}}]`))
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL).SearchByMeta(context.Background(), "shopscribe_ids", "7558015091")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 7, posts[0].ID)
	assert.Equal(t, "Existing", posts[0].Title)
}

func TestSearchByTitle_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Keyboards Compared", r.URL.Query().Get("search"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL).SearchByTitle(context.Background(), "Keyboards Compared")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSearch_RetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL).SearchByTitle(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_DoesNotRetryRequestErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchByTitle(context.Background(), "anything")
	require.ErrorIs(t, err, ErrCMSRequestError)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWritePost_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreatePost(context.Background(), Post{Title: "x"})
	require.ErrorIs(t, err, ErrCMSRequestError)
}
