package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"villamedia/internal/media"
	"villamedia/pkg/utils"
)

// URLs carry ?v=<modifiedAt>, so a given URL never changes content.
const fileCacheControl = "public, max-age=31536000, immutable"

// serveWithETag writes data with caching headers and answers 304 when the
// client already holds the same bytes.
func serveWithETag(w http.ResponseWriter, r *http.Request, data []byte, mimeType string) {
	hash := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(hash[:16]) + `"`

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", fileCacheControl)
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// ServeFile streams an original or variant from the file store through the
// in-memory cache. Concurrent misses for one file share a single read.
// GET /media/{filename}
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid filename.")
		return
	}

	key := fileCacheKey(name)
	data, err, _ := h.requestGroup.Do(key, func() (interface{}, error) {
		if h.cache != nil {
			if cached, ok := h.cache.Get(key); ok {
				return cached, nil
			}
		}

		// Shared by every waiter, so one client hanging up must not fail the rest.
		fileData, err := h.files.Read(context.WithoutCancel(r.Context()), name)
		if err != nil {
			return nil, err
		}

		if h.cache != nil {
			h.cache.Set(key, fileData)
		}
		return fileData, nil
	})

	if err != nil {
		if errors.Is(err, media.ErrFileNotFound) {
			utils.WriteError(w, http.StatusNotFound, utils.ErrResourceNotFound, "File not found.")
			return
		}
		h.log.Error("read %s: %v", name, err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Could not read file.")
		return
	}

	body := data.([]byte)
	mimeType, _ := utils.DetectImageMIME(body)
	serveWithETag(w, r, body, mimeType)
}
