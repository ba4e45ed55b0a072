package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/flinger-site/internal/content"
)

func newContentRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := content.New(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("content.New() error = %v", err)
	}
	h := NewContentHandler(store, logger)

	router := chi.NewRouter()
	router.Get("/api/blog-posts", h.ListPosts)
	router.Get("/api/blog-posts/{id}", h.GetPost)
	router.Post("/api/blog-posts", h.CreatePost)
	router.Put("/api/blog-posts/{id}", h.UpdatePost)
	router.Delete("/api/blog-posts/{id}", h.DeletePost)
	router.Get("/api/blog-categories", h.ListCategories)
	router.Post("/api/blog-categories", h.CreateCategory)
	router.Delete("/api/blog-categories/{category}", h.DeleteCategory)
	return router
}

func do(t *testing.T, router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBlogPosts_CRUD(t *testing.T) {
	router := newContentRouter(t)

	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/blog-categories", `{"name":"Gear"}`).Code)

	rec := do(t, router, http.MethodPost, "/api/blog-posts",
		`{"title":"Choosing a Flinger","content":"body","category":"Gear","excerpt":"guide"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var post content.Post
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, int64(1), post.ID)

	// Partial update: only the title changes.
	rec = do(t, router, http.MethodPut, "/api/blog-posts/1", `{"title":"Updated"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/blog-posts/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "Updated", post.Title)
	assert.Equal(t, "guide", post.Excerpt)

	// Category still referenced: 409.
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodDelete, "/api/blog-categories/Gear", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/blog-posts/1", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/blog-categories/Gear", "").Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/blog-posts/1", "").Code)
}

func TestBlogPosts_BadID(t *testing.T) {
	router := newContentRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/blog-posts/abc", "").Code)
}

func TestBlogCategories_DuplicateIs400(t *testing.T) {
	router := newContentRouter(t)

	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/blog-categories", `{"name":"Gear"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/blog-categories", `{"name":"gear"}`).Code)
}
