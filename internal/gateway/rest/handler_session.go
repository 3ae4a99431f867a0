package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gemexbase/gemex/internal/filter"
	"github.com/gemexbase/gemex/internal/session"
)

type createSessionRequest struct {
	Entity string `json:"entity" validate:"required"`
	// Query restores a bookmarked search, in URL query form.
	Query string `json:"query"`
}

type setEntityRequest struct {
	Entity string `json:"entity" validate:"required"`
}

// patchFilterRequest changes the value, the checked flag or both.
type patchFilterRequest struct {
	Value   json.RawMessage `json:"value" validate:"required_without=Checked"`
	Checked *bool           `json:"checked"`
}

type quickSearchRequest struct {
	Text string `json:"text" validate:"max=512"`
}

type sessionView struct {
	ID          string          `json:"id"`
	Entity      string          `json:"entity"`
	Generation  uint64          `json:"generation"`
	QuickSearch string          `json:"quick_search"`
	Filters     *filter.State   `json:"filters"`
	Query       url.Values      `json:"query"`
	LastResult  *session.Result `json:"last_result,omitempty"`
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, s *session.Session) {
	query, err := s.Query()
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, status, sessionView{
		ID:          s.ID(),
		Entity:      s.Entity(),
		Generation:  s.Generation(),
		QuickSearch: s.QuickSearch(),
		Filters:     s.State(),
		Query:       query,
		LastResult:  s.LastResult(),
	})
}

// sessionOrError looks up the {id} path session, answering 404 when missing.
func (h *Handler) sessionOrError(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeSearchError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[createSessionRequest](r)
	if err != nil {
		writeBadRequest(w, err, "Invalid request body")
		return
	}
	params, err := url.ParseQuery(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query string")
		return
	}

	s, err := h.sessions.Create(req.Entity, params)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusCreated, s)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	h.writeSession(w, r, http.StatusOK, s)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetEntity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	req, err := decodeAndValidate[setEntityRequest](r)
	if err != nil {
		writeBadRequest(w, err, "Invalid request body")
		return
	}
	if err := s.SetEntity(req.Entity); err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK, s)
}

// handlePatchFilter applies the value before the checked flag, so a client
// can set and check a filter in one request.
func (h *Handler) handlePatchFilter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	req, err := decodeAndValidate[patchFilterRequest](r)
	if err != nil {
		writeBadRequest(w, err, "Invalid request body")
		return
	}
	field := r.PathValue("field")

	if len(req.Value) > 0 {
		var value interface{}
		dec := json.NewDecoder(bytes.NewReader(req.Value))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid filter value")
			return
		}
		if err := s.Patch(field, value); err != nil {
			h.writeSearchError(w, r, err)
			return
		}
	}
	if req.Checked != nil {
		if err := s.Toggle(field, *req.Checked); err != nil {
			h.writeSearchError(w, r, err)
			return
		}
	}
	h.writeSession(w, r, http.StatusOK, s)
}

func (h *Handler) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	req, err := decodeAndValidate[quickSearchRequest](r)
	if err != nil {
		writeBadRequest(w, err, "Invalid request body")
		return
	}
	s.SetQuickSearch(req.Text)
	h.writeSession(w, r, http.StatusOK, s)
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	if err := s.Clear(); err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK, s)
}

func (h *Handler) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionOrError(w, r)
	if !ok {
		return
	}
	page, err := h.decodePagination(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err, "Invalid pagination")
		return
	}
	res, err := s.Search(r.Context(), page)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
