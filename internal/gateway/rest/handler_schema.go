package rest

import "net/http"

func (h *Handler) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": h.registry.Entities(),
	})
}

func (h *Handler) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	conf, err := h.registry.Entity(r.PathValue("entity"))
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conf.Describe())
}
