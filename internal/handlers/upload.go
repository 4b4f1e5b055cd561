package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"villamedia/internal/media"
	"villamedia/pkg/utils"
)

// MediaResponse wraps a single record view.
type MediaResponse struct {
	Status  string     `json:"status"`
	Action  string     `json:"action"`
	Doc     media.View `json:"doc"`
	Missing []string   `json:"missing,omitempty"`
}

type PaginatedResponse struct {
	Items      []media.View `json:"items"`
	TotalItems int64        `json:"total_items"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"total_pages"`
}

// UploadHandler stores a multipart upload and renders its variants before
// answering. 201 means every required variant exists, 202 that the record
// was stored but some variants are missing and can be regenerated.
// POST /api/media
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	maxUploadSize := h.cfg.MaxUploadBytes()
	if r.ContentLength > maxUploadSize {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge, "File exceeds size limit.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge, "File exceeds size limit.")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Missing 'file' field.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Could not read uploaded file.")
		return
	}

	mimeType, ok := utils.DetectImageMIME(data)
	if !ok {
		utils.WriteError(w, http.StatusUnsupportedMediaType, utils.ErrRequestUnSupportedMedia, "Unsupported file type. Use JPEG, PNG, GIF or WebP.")
		return
	}

	// Decoding and resizing are CPU and memory heavy; queue here instead of
	// letting every request decode at once.
	select {
	case h.uploadGuard <- struct{}{}:
		defer func() { <-h.uploadGuard }()
	case <-r.Context().Done():
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerUnavailable, "Upload cancelled while queued.")
		return
	}

	rec, err := h.reconciler.Create(r.Context(), media.Upload{
		Filename: header.Filename,
		MimeType: mimeType,
		Data:     data,
		Alt:      strings.TrimSpace(r.FormValue("alt")),
		Caption:  strings.TrimSpace(r.FormValue("caption")),
	})
	h.writeRecord(w, r, "created", http.StatusCreated, rec, err)
}

// ListMedia returns a page of records, newest first.
// GET /api/media?page=1&limit=50&q=living
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := utils.ParseInt(query.Get("page"), 1, 1, 1_000_000)
	limit := utils.ParseInt(query.Get("limit"), 50, 1, 100)

	records, total, err := h.reconciler.List(r.Context(), media.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(query.Get("q")),
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Could not list media.")
		return
	}

	origin := h.originFor(r)

	items := make([]media.View, 0, len(records))
	for i := range records {
		items = append(items, h.reconciler.Present(&records[i], origin))
	}

	utils.WriteJSON(w, http.StatusOK, PaginatedResponse{
		Items:      items,
		TotalItems: total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// GetMedia returns one record. ?absolute=1 prefixes every URL with the
// public origin.
// GET /api/media/{id}
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	rec, err := h.reconciler.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeMediaError(w, err)
		return
	}

	origin := h.originFor(r)
	utils.WriteJSON(w, http.StatusOK, h.reconciler.Present(rec, origin))
}

// DeleteMedia removes a record and its files. Files that could not be
// removed are reported but do not fail the request; the record is gone.
// DELETE /api/media/{id}
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.reconciler.Delete(r.Context(), id)
	if err != nil && !errors.Is(err, media.ErrPartialDelete) {
		h.writeMediaError(w, err)
		return
	}

	names := []string{rec.Filename}
	for _, d := range rec.Variants {
		names = append(names, d.Filename)
	}
	h.invalidate(names...)

	resp := map[string]interface{}{
		"status": "success",
		"action": "deleted",
		"id":     id,
	}
	if err != nil {
		resp["warning"] = "Some files could not be removed from storage."
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// RegenerateMedia fills in missing variants of an existing record.
// POST /api/media/{id}/regenerate
func (h *Handler) RegenerateMedia(w http.ResponseWriter, r *http.Request) {
	select {
	case h.uploadGuard <- struct{}{}:
		defer func() { <-h.uploadGuard }()
	case <-r.Context().Done():
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerUnavailable, "Request cancelled while queued.")
		return
	}

	rec, err := h.reconciler.Regenerate(r.Context(), r.PathValue("id"))
	if rec != nil {
		names := make([]string, 0, len(rec.Variants))
		for _, d := range rec.Variants {
			names = append(names, d.Filename)
		}
		h.invalidate(names...)
	}
	h.writeRecord(w, r, "regenerated", http.StatusOK, rec, err)
}

// writeRecord answers a create or regenerate call. A record that came back
// with an IncompleteError is still returned, with 202.
func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, action string, okStatus int, rec *media.Record, err error) {
	var incomplete *media.IncompleteError
	switch {
	case err == nil:
		utils.WriteJSON(w, okStatus, MediaResponse{
			Status: "success",
			Action: action,
			Doc:    h.reconciler.Present(rec, h.originFor(r)),
		})
	case errors.As(err, &incomplete) && rec != nil:
		utils.WriteJSON(w, http.StatusAccepted, MediaResponse{
			Status:  "incomplete",
			Action:  action,
			Doc:     h.reconciler.Present(rec, h.originFor(r)),
			Missing: incomplete.Missing,
		})
	default:
		h.writeMediaError(w, err)
	}
}

func (h *Handler) writeMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, utils.ErrResourceNotFound, "Media not found.")
	case errors.Is(err, media.ErrInvalidUpload):
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, err.Error())
	case errors.Is(err, media.ErrCodec):
		utils.WriteError(w, http.StatusBadRequest, utils.ErrImageProcessingFailed, "Image could not be decoded.")
	case errors.Is(err, media.ErrFileNotFound):
		utils.WriteError(w, http.StatusConflict, utils.ErrMediaIncomplete, "Original file is missing from storage.")
	default:
		h.log.Error("media request failed: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Media operation failed.")
	}
}

func wantsAbsolute(r *http.Request) bool {
	switch r.URL.Query().Get("absolute") {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (h *Handler) originFor(r *http.Request) string {
	if wantsAbsolute(r) {
		return h.requestOrigin(r)
	}
	return ""
}
