package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/content"
)

// ContentHandler serves blog posts and categories. Reads are public;
// mutations sit behind the admin session middleware in the router.
type ContentHandler struct {
	store  *content.Store
	logger *slog.Logger
}

func NewContentHandler(store *content.Store, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{store: store, logger: logger}
}

func postID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "post id must be an integer")
	}
	return id, nil
}

// ListPosts handles GET /api/blog-posts.
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListPosts())
}

// GetPost handles GET /api/blog-posts/{id}.
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.store.GetPost(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /api/blog-posts (admin).
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var post content.Post
	if err := decodeJSON(r, &post); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.store.CreatePost(post)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("blog post created", slog.Int64("id", created.ID), slog.String("title", created.Title))
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost handles PUT /api/blog-posts/{id} (admin). The body is a
// partial patch: omitted fields keep their stored values.
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch content.PostPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.store.UpdatePost(id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost handles DELETE /api/blog-posts/{id} (admin).
func (h *ContentHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeletePost(id); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("blog post deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/blog-categories.
func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ListCategories())
}

type categoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory handles POST /api/blog-categories (admin).
func (h *ContentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.CreateCategory(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// DeleteCategory handles DELETE /api/blog-categories/{category} (admin).
// Deleting a category still referenced by posts is a 409.
func (h *ContentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "category")

	if err := h.store.DeleteCategory(name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
