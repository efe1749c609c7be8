package rest

import (
	"net/http"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

type createClubRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (h *Handler) listClubs(w http.ResponseWriter, r *http.Request) {
	list, err := h.clubs.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Club{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.clubs.Create(r.Context(), userIDFrom(r.Context()), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) addClubMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	err := h.clubs.AddMember(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.UserID, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
