package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"villamedia/internal/database"
	"villamedia/internal/sitemap"
	"villamedia/pkg/utils"
)

type ContentRequest struct {
	Collection string `json:"collection"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
}

func validCollection(c string) bool {
	return c == sitemap.CollectionProjects || c == sitemap.CollectionBlogPosts
}

func validSlug(s string) bool {
	return s != "" && len(s) <= 200 && !strings.ContainsAny(s, "/\\?# ")
}

// PutContent registers a published project or blog post for the sitemap.
// PUT /api/content
func (h *Handler) PutContent(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerUnavailable, "Content store is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4096)

	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid JSON body.")
		return
	}

	req.Collection = strings.TrimSpace(req.Collection)
	req.Slug = strings.TrimSpace(req.Slug)
	if !validCollection(req.Collection) {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Collection must be 'projects' or 'blogPosts'.")
		return
	}
	if !validSlug(req.Slug) {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid slug.")
		return
	}

	err := h.content.Upsert(r.Context(), database.ContentEntry{
		Collection: req.Collection,
		Slug:       req.Slug,
		Title:      strings.TrimSpace(req.Title),
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Could not save content entry.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"action":     "upserted",
		"collection": req.Collection,
		"slug":       req.Slug,
	})
}

// DeleteContent removes an entry from the sitemap.
// DELETE /api/content/{collection}/{slug}
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	if h.content == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerUnavailable, "Content store is not configured.")
		return
	}

	collection, slug := r.PathValue("collection"), r.PathValue("slug")
	if err := h.content.Delete(r.Context(), collection, slug); err != nil {
		if errors.Is(err, database.ErrContentNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.ErrResourceNotFound, "Content entry not found.")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Could not delete content entry.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"action": "deleted",
	})
}
