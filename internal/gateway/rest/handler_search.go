package rest

import (
	"net/http"
	"net/url"

	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/filter"
	"github.com/gemexbase/gemex/internal/server"
	"github.com/gemexbase/gemex/internal/session"
)

type filtersResponse struct {
	Entity      string        `json:"entity"`
	Filters     *filter.State `json:"filters"`
	Query       url.Values    `json:"query"`
	QueryString string        `json:"query_string"`
}

// handleDecodeFilters decodes a bookmarked query into its filter panel and
// returns the canonical re-encoding next to it.
func (h *Handler) handleDecodeFilters(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	params := r.URL.Query()

	state, err := filter.ApplyIncoming(h.codec, entity, params)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	query, err := h.codec.Encode(state, params)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, filtersResponse{
		Entity:      entity,
		Filters:     state,
		Query:       query,
		QueryString: query.Encode(),
	})
}

// handleSearch runs a one-shot search: the query string is decoded, encoded
// back to its canonical form and sent to the backend.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	params := r.URL.Query()

	page, err := h.decodePagination(params)
	if err != nil {
		writeBadRequest(w, err, "Invalid pagination")
		return
	}

	// The path names the entity type; a stale item parameter must not win.
	params.Set(codec.ItemParam, entity)

	sess, err := session.New("stateless-"+server.GetRequestID(r.Context()), h.sessions.Deps(), entity)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	defer sess.Close()

	if err := sess.LoadQuery(params); err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	res, err := sess.Search(r.Context(), page)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
