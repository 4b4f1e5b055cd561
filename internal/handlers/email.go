package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"villamedia/internal/email"
	"villamedia/pkg/utils"
)

const maxEmailBody = 64 << 10

// SendEmail relays a contact or appointment form to the site owner. The
// response shape is the one the website's forms already parse.
// POST /api/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEmailBody)

	var req email.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	h.log.Debug("email request type=%q from %s", req.Type, utils.GetRealIP(r))

	if h.relay == nil {
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": email.NotConfiguredMessage})
		return
	}

	data, err := h.relay.Send(r.Context(), req)
	if err != nil {
		var pe *email.ProviderError
		switch {
		case errors.Is(err, email.ErrNotConfigured):
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": email.NotConfiguredMessage})
		case errors.Is(err, email.ErrInvalidType):
			utils.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": email.InvalidTypeMessage})
		case errors.As(err, &pe):
			utils.WriteJSON(w, pe.Status, map[string]interface{}{
				"error":   pe.Message,
				"details": pe.Details,
			})
		case errors.Is(err, email.ErrUnavailable):
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Email service temporarily unavailable"})
		default:
			h.log.Error("email sending failed: %v", err)
			utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send email"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Email sent successfully",
		"data":    data,
	})
}
