package rest

import (
	"net/http"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Session{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var in models.Session
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.sessions.Create(r.Context(), userIDFrom(r.Context()), &in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var in models.Session
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	s, err := h.sessions.Update(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), &in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
