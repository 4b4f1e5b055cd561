package handlers

import (
	"net/http"

	"villamedia/pkg/utils"
)

const SecretHeader = "X-Secret-Key"

// RequireSecret protects write and admin routes with the shared upload
// secret. The comparison runs in constant time.
func (h *Handler) RequireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(SecretHeader)
		if got == "" {
			utils.WriteError(w, http.StatusUnauthorized, utils.ErrAuthRequired, "Missing X-Secret-Key header.")
			return
		}
		if !utils.SecretMatches(got, h.cfg.Security.UploadSecret) {
			h.log.Warn("rejected secret from %s on %s", utils.GetRealIP(r), r.URL.Path)
			utils.WriteError(w, http.StatusForbidden, utils.ErrAuthInvalid, "Invalid secret key.")
			return
		}
		next(w, r)
	}
}
