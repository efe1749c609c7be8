package rest

import (
	"net/http"

	"github.com/dmitrijs2005/exersio/internal/server/models"
)

type shareRequest struct {
	ClubID string `json:"clubId"`
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

type imageResponse struct {
	URL string `json:"url"`
}

func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	list, err := h.exercises.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Exercise{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getExercise(w http.ResponseWriter, r *http.Request) {
	e, err := h.exercises.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	var in models.Exercise
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.exercises.Create(r.Context(), userIDFrom(r.Context()), &in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) updateExercise(w http.ResponseWriter, r *http.Request) {
	var in models.Exercise
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.exercises.Update(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), &in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := h.exercises.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shareExercise(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.exercises.Share(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.ClubID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) exercisePermissions(w http.ResponseWriter, r *http.Request) {
	p, err := h.exercises.Permissions(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) exerciseImageUpload(w http.ResponseWriter, r *http.Request) {
	var req imageUploadRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	up, err := h.exercises.ImageUploadURL(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *Handler) exerciseImage(w http.ResponseWriter, r *http.Request) {
	url, err := h.exercises.ImageURL(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{URL: url})
}
