package handlers

import (
	"net/http"
)

// GET /sitemap.xml
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	out, err := h.sitemap.XML(r.Context())
	if err != nil {
		h.log.Error("generating sitemap: %v", err)
		http.Error(w, "Error generating sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write(out)
}

// GET /robots.txt
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(h.sitemap.Robots()))
}
