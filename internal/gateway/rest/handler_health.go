package rest

import "net/http"

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"entities": len(h.registry.Entities()),
		"sessions": h.sessions.Len(),
	})
}
