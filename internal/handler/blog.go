package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/bloggingapi/internal/security/middleware"
	"github.com/aryan0dhankhar/bloggingapi/internal/service"
)

// BlogHandler handles blog endpoints
type BlogHandler struct {
	blogService *service.BlogService
	logger      *slog.Logger
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blogService *service.BlogService, logger *slog.Logger) *BlogHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &BlogHandler{
		blogService: blogService,
		logger:      logger,
	}
}

// SuccessResponse acknowledges a deletion
type SuccessResponse struct {
	Success bool `json:"success"`
}

// List handles GET /api/blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.blogService.ListPublished(r.Context(), service.ListParams{
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
		Q:      q.Get("q"),
		Tags:   q.Get("tags"),
		Author: q.Get("author"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	blog, err := h.blogService.GetPublished(r.Context(), viewer, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// Create handles POST /api/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBlogInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blog, err := h.blogService.Create(r.Context(), middleware.IdentityFromContext(r.Context()), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, blog)
}

// Update handles PATCH /api/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBlogInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blog, err := h.blogService.Update(r.Context(), middleware.IdentityFromContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// Delete handles DELETE /api/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blogService.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Publish handles PATCH /api/blogs/{id}/publish
func (h *BlogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	blog, err := h.blogService.Publish(r.Context(), middleware.IdentityFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// ListMine handles GET /api/blogs/user/me/blogs
func (h *BlogHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.blogService.ListUserBlogs(r.Context(), middleware.IdentityFromContext(r.Context()),
		q.Get("page"), q.Get("limit"), q.Get("state"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
